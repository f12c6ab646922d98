package keys

import (
	"fmt"

	"github.com/satlayer/vesting-claim/claim-cli/commands/vault"
	"github.com/satlayer/vesting-claim/claim-cli/conf"
)

func newService() *vault.Service {
	cfg, err := conf.Load()
	if err != nil {
		panic(err)
	}
	s, err := vault.NewChainService(cfg, "vestclaim-cli")
	if err != nil {
		panic(err)
	}
	return s
}

func Create(password string) {
	s := newService()
	defer s.Close()
	account, err := s.ChainIO.CreateAccount(password)
	if err != nil {
		panic(err)
	}
	fmt.Printf("Created account %s\nkeyfile: %s\n", account.Address.Hex(), account.URL.Path)
}

func Import(privateKey, password string) {
	s := newService()
	defer s.Close()
	account, err := s.ChainIO.ImportKey(privateKey, password)
	if err != nil {
		panic(err)
	}
	fmt.Printf("Imported account %s\n", account.Address.Hex())
}

func List() {
	s := newService()
	defer s.Close()
	accounts := s.ChainIO.ListAccounts()
	if len(accounts) == 0 {
		fmt.Printf("No accounts in %s\n", s.Config.Account.KeyDir)
		return
	}
	for _, a := range accounts {
		fmt.Printf("- address: %s\n  keyfile: %s\n", a.Address.Hex(), a.URL.Path)
	}
}
