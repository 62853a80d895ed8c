// Reader is a client for the routes of a http reporter, used by the vault
// user CLI and in tests.

package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

type HttpReader struct {
	serverIP   string // listen ip
	serverPort string // listen port
	client     *http.Client
}

func NewHttpReader(serverIP string, serverPort string) *HttpReader {
	return &HttpReader{
		serverIP:   serverIP,
		serverPort: serverPort,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (hr *HttpReader) url(route string, query url.Values) string {
	u := "http://" + hr.serverIP + ":" + hr.serverPort + route
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// get decodes the "data" field of a successful response into out.
func (hr *HttpReader) get(route string, query url.Values, out interface{}) error {
	resp, err := hr.client.Get(hr.url(route, query))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			return fmt.Errorf("%s: %s", resp.Status, e.Error)
		}
		return fmt.Errorf("%s", resp.Status)
	}

	wrapper := struct {
		Data interface{} `json:"data"`
	}{Data: out}
	return json.Unmarshal(body, &wrapper)
}

func (hr *HttpReader) GetHello() (string, error) {
	resp, err := hr.client.Get(hr.url(ROUTE_HELLO, nil))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (hr *HttpReader) GetVault() (*VaultView, error) {
	var v VaultView
	if err := hr.get(ROUTE_VAULT, nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (hr *HttpReader) GetPayment(id uint64) (*PaymentView, error) {
	var p PaymentView
	if err := hr.get(ROUTE_PAYMENTS+"/"+strconv.FormatUint(id, 10), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPayments lists payments, status may be empty.
func (hr *HttpReader) GetPayments(status string, offset, limit int) ([]*PaymentView, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))

	var ps []*PaymentView
	if err := hr.get(ROUTE_PAYMENTS, q, &ps); err != nil {
		return nil, err
	}
	return ps, nil
}

func (hr *HttpReader) GetSpenders() ([]*SpenderView, error) {
	var ss []*SpenderView
	if err := hr.get(ROUTE_SPENDERS, nil, &ss); err != nil {
		return nil, err
	}
	return ss, nil
}

func (hr *HttpReader) GetEvents(from, to uint64) ([]*EventView, error) {
	q := url.Values{}
	q.Set("from", strconv.FormatUint(from, 10))
	q.Set("to", strconv.FormatUint(to, 10))

	var evs []*EventView
	if err := hr.get(ROUTE_EVENTS, q, &evs); err != nil {
		return nil, err
	}
	return evs, nil
}
