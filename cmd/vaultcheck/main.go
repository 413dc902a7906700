// vaultcheck verifies that a stored envelope still opens with its password
// and that the sealed mnemonic reproduces the account's addresses. Run it
// after a backup restore or before relying on a cold wallet.
// Usage: vaultcheck -db wallet.db -address <address>
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/veltapay/wallet-core/internal/envelope"
	"github.com/veltapay/wallet-core/internal/keys"
	"github.com/veltapay/wallet-core/internal/logger"
	"github.com/veltapay/wallet-core/internal/mnemonic"
	"github.com/veltapay/wallet-core/internal/model"
	"github.com/veltapay/wallet-core/internal/store"
)

func main() {
	dbPath := flag.String("db", "wallet.db", "path to the wallet database")
	address := flag.String("address", "", "account address to check")
	flag.Parse()

	if *address == "" {
		fmt.Fprintln(os.Stderr, "vaultcheck: -address is required")
		os.Exit(2)
	}

	if err := run(*dbPath, *address); err != nil {
		fmt.Fprintln(os.Stderr, "vaultcheck:", err)
		os.Exit(1)
	}
}

func run(dbPath, address string) error {
	ctx := context.Background()

	db, err := store.Open(ctx, dbPath, logger.Nop())
	if err != nil {
		return err
	}
	defer db.Close()

	env, err := db.EnvelopeByAddress(ctx, address)
	if err != nil {
		return err
	}

	fmt.Fprint(os.Stderr, "Password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	defer clear(password)

	plaintext, err := envelope.Open(string(password), env)
	if err != nil {
		if errors.Is(err, envelope.ErrAuthenticationFailed) {
			return errors.New("envelope did not open: wrong password or corrupted data")
		}
		return err
	}
	defer clear(plaintext)

	var bundle model.SecretBundle
	if err := json.Unmarshal(plaintext, &bundle); err != nil {
		return fmt.Errorf("malformed secret bundle: %w", err)
	}
	defer bundle.Wipe()

	if !mnemonic.Validate(bundle.Mnemonic) {
		return errors.New("sealed mnemonic failed checksum validation")
	}

	seed, err := mnemonic.ToSeed(bundle.Mnemonic)
	if err != nil {
		return err
	}
	defer clear(seed)

	// The stored address must be reachable from the sealed mnemonic on at
	// least one chain family, otherwise the envelope and the account row
	// have drifted apart.
	matched := false
	for _, chain := range []keys.ChainFamily{keys.ChainEVM, keys.ChainSolana} {
		kp, err := keys.Derive(seed, chain)
		if err != nil {
			return err
		}
		if kp.Address == address {
			matched = true
			fmt.Printf("OK: envelope opens, mnemonic reproduces %s address %s\n", chain, kp.Address)
		}
		kp.Zero()
	}
	if !matched {
		return errors.New("mnemonic does not reproduce the stored address")
	}
	return nil
}
