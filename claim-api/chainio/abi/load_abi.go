package abi

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const (
	VestingVaultContract = "VestingVault"
	ERC20Contract        = "ERC20"
)

var (
	abiCache = make(map[string]*abi.ABI)
	cacheMu  sync.Mutex

	builtin = map[string]string{
		VestingVaultContract: VestingVaultABI,
		ERC20Contract:        ERC20ABI,
	}
)

// GetContractABI returns the parsed ABI for contractName. When abiPath is set
// the ABI is read from <abiPath>/<contractName>.json, otherwise the bundled
// definition is used.
func GetContractABI(abiPath string, contractName string) (*abi.ABI, error) {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	key := abiPath + "/" + contractName
	if cachedABI, ok := abiCache[key]; ok {
		return cachedABI, nil
	}
	var (
		parsedABI *abi.ABI
		err       error
	)
	if abiPath == "" {
		raw, ok := builtin[contractName]
		if !ok {
			return nil, fmt.Errorf("no bundled abi for %s", contractName)
		}
		parsedABI, err = parseABI(raw)
	} else {
		s, _ := filepath.Abs(fmt.Sprintf("%s/%s.json", abiPath, contractName))
		parsedABI, err = loadABI(s)
	}
	if err != nil {
		return nil, err
	}
	abiCache[key] = parsedABI
	return parsedABI, nil
}

func loadABI(filePath string) (*abi.ABI, error) {
	abiFile, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer abiFile.Close()

	parsedABI, err := abi.JSON(abiFile)
	if err != nil {
		return nil, err
	}

	return &parsedABI, nil
}

func parseABI(raw string) (*abi.ABI, error) {
	parsedABI, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		return nil, err
	}
	return &parsedABI, nil
}
