package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Giveth/vaultcontract/agreement"
	"github.com/Giveth/vaultcontract/database"
	"github.com/Giveth/vaultcontract/vault"
)

const (
	queryUpsertPayment = `INSERT OR REPLACE INTO payment (` + paymentColumns + `, updatedBlock) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	queryUpsertSpender = `INSERT OR REPLACE INTO spender (` + spenderColumns + `) VALUES (?, ?, ?, ?, ?)`
	queryUpsertVault   = `INSERT OR REPLACE INTO vault (` + vaultColumns + `, updatedBlock) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	queryInsertEvent   = `INSERT OR IGNORE INTO event (blockNumber, logIndex, txHash, name, args) VALUES (?, ?, ?, ?, ?)`
	querySetKeyedValue = `INSERT OR REPLACE INTO kv (key, value) VALUES (?, ?)`

	queryGetPayment     = `SELECT` + paymentColumns + `FROM payment WHERE id = ?`
	queryGetPayments    = `SELECT` + paymentColumns + `FROM payment WHERE (? = '' OR status = ?) ORDER BY id LIMIT ? OFFSET ?`
	// payments of a revoked spender are never due, unknown spenders pass
	queryGetPaymentsDue = `SELECT` + paymentColumns + `FROM payment LEFT JOIN spender s ON s.address = payment.spender
		WHERE status = 'pending' AND earliestPayTime <= ? AND (s.authorized IS NULL OR s.authorized = 1)
		ORDER BY earliestPayTime, id LIMIT ? OFFSET ?`
	queryCountPayments  = `SELECT COUNT(*) FROM payment WHERE (? = '' OR status = ?)`
	queryGetSpenders    = `SELECT` + spenderColumns + `FROM spender ORDER BY idx`
	queryGetVault       = `SELECT` + vaultColumns + `FROM vault LIMIT 1`
	queryGetEvents      = `SELECT blockNumber, logIndex, txHash, name, args FROM event WHERE blockNumber >= ? AND blockNumber <= ? ORDER BY blockNumber, logIndex LIMIT ?`
	queryGetKeyedValue  = `SELECT value FROM kv WHERE key = ?`
)

// StateDB persists the indexed vault. Hashes and addresses are stored as hex
// without the 0x prefix, amounts as decimal strings.
type StateDB struct {
	db        *sql.DB
	stmtCache *database.StmtCache
}

func NewStateDB(db *sql.DB) (*StateDB, error) {
	if err := database.Migrate(context.Background(), db, schema...); err != nil {
		return nil, err
	}

	return &StateDB{
		db:        db,
		stmtCache: database.NewStmtCache(db),
	}, nil
}

func (st *StateDB) Close() {
	st.stmtCache.Clear()
}

func (st *StateDB) GetKeyedValue(key common.Hash) (common.Hash, bool, error) {
	stmt, err := st.stmtCache.Prepare(queryGetKeyedValue)
	if err != nil {
		return common.Hash{}, false, err
	}

	var value string
	if err := stmt.QueryRow(hexOf(key.Bytes())).Scan(&value); err != nil {
		if err == sql.ErrNoRows {
			return common.Hash{}, false, nil
		}
		return common.Hash{}, false, err
	}

	return common.HexToHash(value), true, nil
}

func (st *StateDB) SetKeyedValue(key, value common.Hash) error {
	stmt, err := st.stmtCache.Prepare(querySetKeyedValue)
	if err != nil {
		return err
	}

	_, err = stmt.Exec(hexOf(key.Bytes()), hexOf(value.Bytes()))
	return err
}

// ApplyBatch stores the batch and its block number in one transaction.
func (st *StateDB) ApplyBatch(ctx context.Context, batch *agreement.SyncBatch) error {
	// statements are prepared before the transaction takes the connection
	queries := []string{queryInsertEvent, queryUpsertPayment, queryUpsertSpender, queryUpsertVault, querySetKeyedValue}
	stmts := make(map[string]*sql.Stmt, len(queries))
	for _, q := range queries {
		stmt, err := st.stmtCache.PrepareContext(ctx, q)
		if err != nil {
			return err
		}
		stmts[q] = stmt
	}

	tx, err := st.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	exec := func(query string, args ...interface{}) error {
		_, err := tx.StmtContext(ctx, stmts[query]).ExecContext(ctx, args...)
		return err
	}
	block := batch.BlockNumber.Int64()

	for _, ev := range batch.Events {
		args, err := json.Marshal(ev.Args)
		if err != nil {
			return err
		}
		if err := exec(queryInsertEvent, ev.BlockNumber, ev.LogIndex, hexOf(ev.TxHash.Bytes()), ev.Name, string(args)); err != nil {
			return fmt.Errorf("failed to insert event %v: %w", ev, err)
		}
	}

	for _, p := range batch.Payments {
		if err := exec(queryUpsertPayment,
			p.ID,
			p.Description,
			hexOf(p.Reference.Bytes()),
			hexOf(p.Spender.Bytes()),
			int64(p.EarliestPayTime),
			int64(p.SecurityGuardDelay),
			hexOf(p.Recipient.Bytes()),
			p.Amount.String(),
			string(p.Status()),
			block,
		); err != nil {
			return fmt.Errorf("failed to store payment %d: %w", p.ID, err)
		}
	}

	for _, s := range batch.Spenders {
		if err := exec(queryUpsertSpender, hexOf(s.Address.Bytes()), s.Name, hexOf(s.NameHash.Bytes()), s.Idx, s.Authorized); err != nil {
			return fmt.Errorf("failed to store spender %s: %w", s.Address.Hex(), err)
		}
	}

	if v := batch.Vault; v != nil {
		if err := exec(queryUpsertVault,
			hexOf(v.Address.Bytes()),
			hexOf(v.Owner.Bytes()),
			hexOf(v.EscapeHatchCaller.Bytes()),
			hexOf(v.EscapeHatchDestination.Bytes()),
			hexOf(v.SecurityGuard.Bytes()),
			hexOf(v.BaseToken.Bytes()),
			int64(v.AbsoluteMinTimeLock),
			int64(v.TimeLock),
			int64(v.MaxSecurityGuardDelay),
			v.Balance.String(),
			block,
		); err != nil {
			return fmt.Errorf("failed to store vault: %w", err)
		}
	}

	if err := exec(querySetKeyedValue, hexOf(KeyFinalizedBlock.Bytes()), hexOf(common.BigToHash(batch.BlockNumber).Bytes())); err != nil {
		return err
	}

	return tx.Commit()
}

func (st *StateDB) GetPayment(id uint64) (*vault.Payment, bool, error) {
	// ids are stored as signed integers
	if id > math.MaxInt64 {
		return nil, false, nil
	}

	stmt, err := st.stmtCache.Prepare(queryGetPayment)
	if err != nil {
		return nil, false, err
	}

	p, err := scanPayment(stmt.QueryRow(int64(id)))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}
	return p, true, nil
}

// GetPayments pages through payments ordered by id. An empty status
// matches every payment.
func (st *StateDB) GetPayments(status vault.PaymentStatus, offset, limit int) ([]*vault.Payment, error) {
	stmt, err := st.stmtCache.Prepare(queryGetPayments)
	if err != nil {
		return nil, err
	}

	rows, err := stmt.Query(string(status), string(status), limit, offset)
	if err != nil {
		return nil, err
	}
	return collectPayments(rows)
}

func (st *StateDB) CountPayments(status vault.PaymentStatus) (int, error) {
	stmt, err := st.stmtCache.Prepare(queryCountPayments)
	if err != nil {
		return 0, err
	}

	var n int
	err = stmt.QueryRow(string(status), string(status)).Scan(&n)
	return n, err
}

// GetPaymentsDue pages through pending payments collectable at now, oldest
// first, leaving out those of revoked spenders.
func (st *StateDB) GetPaymentsDue(ctx context.Context, now uint64, offset, limit int) ([]*vault.Payment, error) {
	stmt, err := st.stmtCache.PrepareContext(ctx, queryGetPaymentsDue)
	if err != nil {
		return nil, err
	}

	if now > math.MaxInt64 {
		now = math.MaxInt64
	}
	rows, err := stmt.QueryContext(ctx, int64(now), limit, offset)
	if err != nil {
		return nil, err
	}
	return collectPayments(rows)
}

func (st *StateDB) GetSpenders() ([]*vault.Spender, error) {
	stmt, err := st.stmtCache.Prepare(queryGetSpenders)
	if err != nil {
		return nil, err
	}

	rows, err := stmt.Query()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	spenders := []*vault.Spender{}
	for rows.Next() {
		var addr, nameHash string
		s := &vault.Spender{}
		if err := rows.Scan(&addr, &s.Name, &nameHash, &s.Idx, &s.Authorized); err != nil {
			return nil, err
		}
		s.Address = common.HexToAddress(addr)
		s.NameHash = common.HexToHash(nameHash)
		spenders = append(spenders, s)
	}
	return spenders, rows.Err()
}

// GetVault returns the vault summary. Payments and Spenders are left empty.
func (st *StateDB) GetVault() (*vault.State, bool, error) {
	stmt, err := st.stmtCache.Prepare(queryGetVault)
	if err != nil {
		return nil, false, err
	}

	var (
		address, owner, caller, dest, guard, token, balance string
		minTimeLock, timeLock, maxDelay                     int64
	)
	err = stmt.QueryRow().Scan(&address, &owner, &caller, &dest, &guard, &token, &minTimeLock, &timeLock, &maxDelay, &balance)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}

	b, ok := new(big.Int).SetString(balance, 10)
	if !ok {
		return nil, false, fmt.Errorf("invalid stored balance %q", balance)
	}
	return &vault.State{
		Address:                common.HexToAddress(address),
		Owner:                  common.HexToAddress(owner),
		EscapeHatchCaller:      common.HexToAddress(caller),
		EscapeHatchDestination: common.HexToAddress(dest),
		SecurityGuard:          common.HexToAddress(guard),
		BaseToken:              common.HexToAddress(token),
		AbsoluteMinTimeLock:    uint64(minTimeLock),
		TimeLock:               uint64(timeLock),
		MaxSecurityGuardDelay:  uint64(maxDelay),
		Balance:                b,
	}, true, nil
}

// GetEvents returns up to limit events in [from, to], in chain order.
func (st *StateDB) GetEvents(from, to uint64, limit int) ([]*agreement.VaultEvent, error) {
	stmt, err := st.stmtCache.Prepare(queryGetEvents)
	if err != nil {
		return nil, err
	}

	rows, err := stmt.Query(int64(from), int64(to), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []*agreement.VaultEvent{}
	for rows.Next() {
		var (
			ev     agreement.VaultEvent
			txHash string
			args   string
		)
		if err := rows.Scan(&ev.BlockNumber, &ev.LogIndex, &txHash, &ev.Name, &args); err != nil {
			return nil, err
		}
		ev.TxHash = common.HexToHash(txHash)
		if err := json.Unmarshal([]byte(args), &ev.Args); err != nil {
			return nil, err
		}
		events = append(events, &ev)
	}
	return events, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPayment(row scanner) (*vault.Payment, error) {
	var (
		p                                      vault.Payment
		reference, spender, recipient, amount string
		status                                 string
		earliest, guardDelay                   int64
	)
	if err := row.Scan(&p.ID, &p.Description, &reference, &spender, &earliest, &guardDelay, &recipient, &amount, &status); err != nil {
		return nil, err
	}

	var ok bool
	if p.Amount, ok = new(big.Int).SetString(amount, 10); !ok {
		return nil, fmt.Errorf("invalid stored amount %q for payment %d", amount, p.ID)
	}
	p.Reference = common.HexToHash(reference)
	p.Spender = common.HexToAddress(spender)
	p.Recipient = common.HexToAddress(recipient)
	p.EarliestPayTime = uint64(earliest)
	p.SecurityGuardDelay = uint64(guardDelay)
	switch vault.PaymentStatus(status) {
	case vault.PaymentStatusPaid:
		p.Paid = true
	case vault.PaymentStatusCanceled:
		p.Canceled = true
	}
	return &p, nil
}

func collectPayments(rows *sql.Rows) ([]*vault.Payment, error) {
	defer rows.Close()

	payments := []*vault.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func hexOf(b []byte) string {
	return common.Bytes2Hex(b)
}
