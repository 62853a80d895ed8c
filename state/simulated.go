package state

import (
	"database/sql"
	"math/big"

	logger "github.com/sirupsen/logrus"

	"github.com/Giveth/vaultcontract/common"
	"github.com/Giveth/vaultcontract/database"
	"github.com/Giveth/vaultcontract/vault"
)

func RandPayment(id uint64, status vault.PaymentStatus, earliestPayTime uint64) *vault.Payment {
	return &vault.Payment{
		ID:              id,
		Description:     "rand payment",
		Reference:       common.RandBytes32(),
		Spender:         common.RandEthAddress(),
		EarliestPayTime: earliestPayTime,
		Paid:            status == vault.PaymentStatusPaid,
		Canceled:        status == vault.PaymentStatusCanceled,
		Recipient:       common.RandEthAddress(),
		Amount:          big.NewInt(100),
	}
}

func getMemoryDB() *sql.DB {
	db, err := database.Open(database.InMemory)
	if err != nil {
		logger.Fatal(err)
	}
	return db
}
