package state

import "strings"

var (
	strZeroBytes20 = strings.Repeat("0", 40)

	// one row per authorized payment, keyed by the vault payment id
	paymentTable = `CREATE TABLE IF NOT EXISTS payment (
		id INTEGER PRIMARY KEY NOT NULL,
		description TEXT NOT NULL,
		reference CHAR(64) NOT NULL,
		spender CHAR(40) NOT NULL,
		earliestPayTime INTEGER NOT NULL,
		securityGuardDelay INTEGER NOT NULL,
		recipient CHAR(40) NOT NULL,
		amount TEXT NOT NULL,
		status VARCHAR(10) NOT NULL,
		updatedBlock INTEGER NOT NULL,
		CONSTRAINT chk_status CHECK (status IN ('pending', 'paid', 'canceled')),
		CONSTRAINT chk_id CHECK (id >= 0),
		CONSTRAINT chk_spender CHECK (spender != '` + strZeroBytes20 + `')
	);`

	paymentStatusIndex = `CREATE INDEX IF NOT EXISTS idx_payment_status ON payment (status, earliestPayTime);`

	spenderTable = `CREATE TABLE IF NOT EXISTS spender (
		address CHAR(40) PRIMARY KEY NOT NULL,
		name TEXT NOT NULL,
		nameHash CHAR(64) NOT NULL,
		idx INTEGER UNIQUE NOT NULL,
		authorized BOOLEAN NOT NULL,
		CONSTRAINT chk_idx CHECK (idx > 0),
		CONSTRAINT chk_address CHECK (address != '` + strZeroBytes20 + `')
	);`

	// a single row describing the synced vault
	vaultTable = `CREATE TABLE IF NOT EXISTS vault (
		address CHAR(40) PRIMARY KEY NOT NULL,
		owner CHAR(40) NOT NULL,
		escapeHatchCaller CHAR(40) NOT NULL,
		escapeHatchDestination CHAR(40) NOT NULL,
		securityGuard CHAR(40) NOT NULL,
		baseToken CHAR(40) NOT NULL,
		absoluteMinTimeLock INTEGER NOT NULL,
		timeLock INTEGER NOT NULL,
		maxSecurityGuardDelay INTEGER NOT NULL,
		balance TEXT NOT NULL,
		updatedBlock INTEGER NOT NULL
	);`

	// append only log of vault events, args stored as a JSON object
	eventTable = `CREATE TABLE IF NOT EXISTS event (
		blockNumber INTEGER NOT NULL,
		logIndex INTEGER NOT NULL,
		txHash CHAR(64) NOT NULL,
		name VARCHAR(32) NOT NULL,
		args TEXT NOT NULL,
		PRIMARY KEY (blockNumber, logIndex)
	);`

	// table stores key-value pairs. Both key and value are a 32-byte hex string without prefix '0x'
	kvTable = `CREATE TABLE IF NOT EXISTS kv (
		key CHAR(64) PRIMARY KEY NOT NULL,
		value CHAR(64) NOT NULL
	);`

	schema = []string{paymentTable, paymentStatusIndex, spenderTable, vaultTable, eventTable, kvTable}
)

const (
	paymentColumns = " id, description, reference, spender, earliestPayTime, securityGuardDelay, recipient, amount, status "
	spenderColumns = " address, name, nameHash, idx, authorized "
	vaultColumns   = " address, owner, escapeHatchCaller, escapeHatchDestination, securityGuard, baseToken, absoluteMinTimeLock, timeLock, maxSecurityGuardDelay, balance "
)
