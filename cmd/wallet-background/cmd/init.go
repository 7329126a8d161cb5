package cmd

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/spf13/cobra"
	bip39 "github.com/tyler-smith/go-bip39"

	"wallet-background/internal/event"
	"wallet-background/internal/service"
	"wallet-background/pkg/config"
	"wallet-background/pkg/logger"
)

var initPassword string

// initCmd onboards a fresh wallet: generate a mnemonic, encrypt it into
// the keystore file and derive the first account.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a new wallet keystore",
	Long: `Generates a random BIP-39 mnemonic, encrypts it into the keystore
file with the given password and derives the first account.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		config.Init()
		logger.Init(config.Global.App.Env)
		defer logger.Sync()

		if initPassword == "" {
			return fmt.Errorf("a password is required, pass --password")
		}

		entropy, err := bip39.NewEntropy(256)
		if err != nil {
			return err
		}
		mnemonic, err := bip39.NewMnemonic(entropy)
		if err != nil {
			return err
		}

		lock := service.NewLockService(config.Global.Wallet.KeystorePath, 0)
		if err := lock.InitKeystore(mnemonic, initPassword); err != nil {
			return err
		}
		if err := lock.Unlock(cmd.Context(), initPassword); err != nil {
			return err
		}
		defer lock.Lock()

		store, err := openStorage()
		if err != nil {
			return err
		}
		accounts, err := service.NewAccountsService(store, event.NewEmitter())
		if err != nil {
			return err
		}

		wallet := service.NewMnemonicWallet(lock, accounts, &chaincfg.MainNetParams)
		addrs, err := wallet.DeriveAddresses(0)
		if err != nil {
			return err
		}
		acc, err := accounts.AddAccount("Account 1", addrs)
		if err != nil {
			return err
		}

		fmt.Println("---------------------------------------------------")
		fmt.Printf("Mnemonic (write it down, it is shown once):\n%s\n", mnemonic)
		fmt.Println("---------------------------------------------------")
		fmt.Printf("Keystore: %s\n", config.Global.Wallet.KeystorePath)
		fmt.Printf("Account:  %s\n", acc.Name)
		fmt.Printf("C-Chain:  %s\n", acc.AddressC)
		fmt.Printf("Bitcoin:  %s\n", acc.AddressBTC)
		return nil
	},
}

func init() {
	initCmd.Flags().StringVarP(&initPassword, "password", "p", "", "keystore encryption password")
	rootCmd.AddCommand(initCmd)
}
