package gateway

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// GameContractABI is the slice of the game contract the gateway calls.
const GameContractABI = `[
	{"type":"function","name":"isAvailable","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"getData","stateMutability":"view","inputs":[{"name":"key","type":"string"}],"outputs":[{"name":"","type":"bytes"}]},
	{"type":"function","name":"setData","stateMutability":"nonpayable","inputs":[{"name":"key","type":"string"},{"name":"value","type":"bytes"}],"outputs":[]}
]`

// ErrReadOnly is returned by SetData when no signing key is configured.
var ErrReadOnly = errors.New("gateway: no signer configured")

// EthereumConfig holds the RPC endpoint and contract coordinates.
type EthereumConfig struct {
	RPCURL          string
	ContractAddress string
	PrivateKey      string
	ChainID         int64
	WaitMined       bool
}

// EthereumGateway talks to the game contract over JSON-RPC. Writes are blind:
// the contract has no version primitive.
type EthereumGateway struct {
	client    *ethclient.Client
	backend   bind.DeployBackend
	contract  *bind.BoundContract
	address   common.Address
	auth      *bind.TransactOpts
	waitMined bool
}

// NewEthereumGateway dials the RPC endpoint and binds the contract. Without a
// private key the gateway is read-only.
func NewEthereumGateway(ctx context.Context, cfg EthereumConfig) (*EthereumGateway, error) {
	if !common.IsHexAddress(cfg.ContractAddress) {
		return nil, fmt.Errorf("invalid contract address %q", cfg.ContractAddress)
	}

	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial rpc: %w", err)
	}

	var auth *bind.TransactOpts
	if cfg.PrivateKey != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("invalid private key: %w", err)
		}
		chainID := big.NewInt(cfg.ChainID)
		if cfg.ChainID == 0 {
			if chainID, err = client.ChainID(ctx); err != nil {
				client.Close()
				return nil, fmt.Errorf("failed to query chain id: %w", err)
			}
		}
		if auth, err = bind.NewKeyedTransactorWithChainID(key, chainID); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to build transactor: %w", err)
		}
	}

	g, err := newEthereumGateway(client, common.HexToAddress(cfg.ContractAddress), auth, cfg.WaitMined)
	if err != nil {
		client.Close()
		return nil, err
	}
	g.client = client
	return g, nil
}

type ethereumBackend interface {
	bind.ContractBackend
	bind.DeployBackend
}

func newEthereumGateway(backend ethereumBackend, address common.Address, auth *bind.TransactOpts, waitMined bool) (*EthereumGateway, error) {
	parsed, err := abi.JSON(strings.NewReader(GameContractABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse contract abi: %w", err)
	}
	var (
		caller     bind.ContractCaller
		transactor bind.ContractTransactor
		filterer   bind.ContractFilterer
		deployer   bind.DeployBackend
	)
	if backend != nil {
		caller, transactor, filterer, deployer = backend, backend, backend, backend
	}
	return &EthereumGateway{
		backend:   deployer,
		contract:  bind.NewBoundContract(address, parsed, caller, transactor, filterer),
		address:   address,
		auth:      auth,
		waitMined: waitMined,
	}, nil
}

func (g *EthereumGateway) IsAvailable(ctx context.Context) (bool, error) {
	var out []interface{}
	if err := g.contract.Call(&bind.CallOpts{Context: ctx}, &out, "isAvailable"); err != nil {
		return false, fmt.Errorf("isAvailable: %w", err)
	}
	available := *abi.ConvertType(out[0], new(bool)).(*bool)
	return available, nil
}

func (g *EthereumGateway) GetData(ctx context.Context, key string) ([]byte, error) {
	var out []interface{}
	if err := g.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getData", key); err != nil {
		return nil, fmt.Errorf("getData %s: %w", key, err)
	}
	data := *abi.ConvertType(out[0], new([]byte)).(*[]byte)
	return data, nil
}

func (g *EthereumGateway) SetData(ctx context.Context, key string, data []byte) (Receipt, error) {
	if g.auth == nil {
		return Receipt{}, ErrReadOnly
	}
	opts := *g.auth
	opts.Context = ctx

	tx, err := g.contract.Transact(&opts, "setData", key, data)
	if err != nil {
		if isUserRejection(err) {
			return Receipt{}, fmt.Errorf("%w: %v", ErrRejected, err)
		}
		return Receipt{}, fmt.Errorf("setData %s: %w", key, err)
	}

	if g.waitMined && g.backend != nil {
		receipt, err := bind.WaitMined(ctx, g.backend, tx)
		if err != nil {
			return Receipt{}, fmt.Errorf("waiting for %s: %w", tx.Hash().Hex(), err)
		}
		if receipt.Status != types.ReceiptStatusSuccessful {
			return Receipt{}, fmt.Errorf("setData %s: transaction %s reverted", key, tx.Hash().Hex())
		}
	}

	return Receipt{Key: key, TxHash: tx.Hash().Hex(), Size: len(data)}, nil
}

func isUserRejection(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "user rejected") || strings.Contains(msg, "user denied")
}

func (g *EthereumGateway) Address(ctx context.Context) (string, error) {
	return g.address.Hex(), nil
}

func (g *EthereumGateway) Backend() string { return BackendEthereum }

func (g *EthereumGateway) Close() error {
	if g.client != nil {
		g.client.Close()
	}
	return nil
}
