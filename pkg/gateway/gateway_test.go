package gateway

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// versionedGateway is what every conditional backend under test provides.
type versionedGateway interface {
	Gateway
	Versioned
}

func newBackends(t *testing.T) map[string]versionedGateway {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	file, err := NewFileGateway(t.TempDir())
	require.NoError(t, err)

	return map[string]versionedGateway{
		BackendMemory: NewMemoryGateway(),
		BackendFile:   file,
		BackendRedis:  NewRedisGateway(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test:"),
	}
}

func TestGatewayContract(t *testing.T) {
	ctx := context.Background()

	for name, g := range newBackends(t) {
		t.Run(name, func(t *testing.T) {
			ok, err := g.IsAvailable(ctx)
			require.NoError(t, err)
			assert.True(t, ok)

			data, err := g.GetData(ctx, "gameData")
			require.NoError(t, err)
			assert.Empty(t, data, "missing key reads as empty")

			blob, err := g.GetVersioned(ctx, "gameData")
			require.NoError(t, err)
			assert.Empty(t, blob.Version)

			receipt, err := g.SetData(ctx, "gameData", []byte(`[{"id":1}]`))
			require.NoError(t, err)
			assert.Equal(t, "gameData", receipt.Key)
			assert.Equal(t, 10, receipt.Size)
			assert.NotEmpty(t, receipt.TxHash)

			data, err = g.GetData(ctx, "gameData")
			require.NoError(t, err)
			assert.Equal(t, `[{"id":1}]`, string(data))

			addr, err := g.Address(ctx)
			require.NoError(t, err)
			assert.NotEmpty(t, addr)
			assert.Equal(t, name, g.Backend())
		})
	}
}

func TestConditionalWrites(t *testing.T) {
	ctx := context.Background()

	for name, g := range newBackends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := g.SetIfVersion(ctx, "leaderboard", []byte("[1]"), "")
			require.NoError(t, err, "create when absent")

			_, err = g.SetIfVersion(ctx, "leaderboard", []byte("[2]"), "")
			assert.ErrorIs(t, err, ErrVersionConflict, "create when present")

			blob, err := g.GetVersioned(ctx, "leaderboard")
			require.NoError(t, err)
			require.NotEmpty(t, blob.Version)

			_, err = g.SetIfVersion(ctx, "leaderboard", []byte("[1,2]"), blob.Version)
			require.NoError(t, err)

			_, err = g.SetIfVersion(ctx, "leaderboard", []byte("[1,3]"), blob.Version)
			assert.ErrorIs(t, err, ErrVersionConflict, "stale version")

			data, err := g.GetData(ctx, "leaderboard")
			require.NoError(t, err)
			assert.Equal(t, "[1,2]", string(data))
		})
	}
}

func TestConcurrentAppendsAreNotLost(t *testing.T) {
	ctx := context.Background()

	for name, g := range newBackends(t) {
		t.Run(name, func(t *testing.T) {
			const writers = 8
			var wg sync.WaitGroup
			for i := 0; i < writers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for {
						blob, err := g.GetVersioned(ctx, "counter")
						if err != nil {
							t.Error(err)
							return
						}
						next := append(append([]byte(nil), blob.Data...), 'x')
						_, err = g.SetIfVersion(ctx, "counter", next, blob.Version)
						if errors.Is(err, ErrVersionConflict) {
							continue
						}
						if err != nil {
							t.Error(err)
						}
						return
					}
				}()
			}
			wg.Wait()

			data, err := g.GetData(ctx, "counter")
			require.NoError(t, err)
			assert.Len(t, data, writers)
		})
	}
}

func TestBackendEquivalenceProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)
	ctx := context.Background()
	backends := newBackends(t)

	properties.Property("all backends return what was written", prop.ForAll(
		func(key string, payload []byte) bool {
			var first []byte
			i := 0
			for _, g := range backends {
				if _, err := g.SetData(ctx, key, payload); err != nil {
					return false
				}
				got, err := g.GetData(ctx, key)
				if err != nil || string(got) != string(payload) {
					return false
				}
				if i > 0 && string(first) != string(got) {
					return false
				}
				first = got
				i++
			}
			return true
		},
		gen.Identifier(),
		gen.SliceOf(gen.UInt8()),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestMemoryAvailabilityToggle(t *testing.T) {
	g := NewMemoryGateway()
	g.SetAvailable(false)
	ok, err := g.IsAvailable(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileGatewayRejectsPathKeys(t *testing.T) {
	g, err := NewFileGateway(t.TempDir())
	require.NoError(t, err)

	_, err = g.SetData(context.Background(), "../escape", []byte("x"))
	assert.Error(t, err)
}

func TestInstrumentPreservesVersioning(t *testing.T) {
	wrapped := Instrument(NewMemoryGateway())
	_, ok := AsVersioned(wrapped)
	assert.True(t, ok)

	_, ok = AsVersioned(Instrument(&EthereumGateway{}))
	assert.False(t, ok)

	v, _ := AsVersioned(wrapped)
	_, err := v.SetIfVersion(context.Background(), "k", []byte("a"), "7")
	assert.ErrorIs(t, err, ErrVersionConflict)
}

// fakeContract answers eth_call for the game contract ABI from a map.
type fakeContract struct {
	bind.ContractBackend
	abi       abi.ABI
	blobs     map[string][]byte
	available bool
}

func (f *fakeContract) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	return []byte{0x60}, nil
}

func (f *fakeContract) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	method, err := f.abi.MethodById(call.Data[:4])
	if err != nil {
		return nil, err
	}
	args, err := method.Inputs.Unpack(call.Data[4:])
	if err != nil {
		return nil, err
	}
	switch method.Name {
	case "isAvailable":
		return method.Outputs.Pack(f.available)
	case "getData":
		return method.Outputs.Pack(append([]byte{}, f.blobs[args[0].(string)]...))
	}
	return nil, errors.New("unexpected call " + method.Name)
}

func (f *fakeContract) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	return nil, errors.New("not mined")
}

func TestEthereumGatewayReads(t *testing.T) {
	parsed, err := abi.JSON(strings.NewReader(GameContractABI))
	require.NoError(t, err)

	fake := &fakeContract{
		abi:       parsed,
		available: true,
		blobs:     map[string][]byte{"gameData": []byte(`[{"id":1,"playerName":"Ava"}]`)},
	}
	addr := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	g, err := newEthereumGateway(fake, addr, nil, false)
	require.NoError(t, err)

	ctx := context.Background()
	ok, err := g.IsAvailable(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	data, err := g.GetData(ctx, "gameData")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1,"playerName":"Ava"}]`, string(data))

	data, err = g.GetData(ctx, "leaderboard")
	require.NoError(t, err)
	assert.Empty(t, data)

	got, err := g.Address(ctx)
	require.NoError(t, err)
	assert.Equal(t, addr.Hex(), got)

	_, err = g.SetData(ctx, "gameData", []byte("[]"))
	assert.ErrorIs(t, err, ErrReadOnly)
}

func TestUserRejectionDetection(t *testing.T) {
	assert.True(t, isUserRejection(errors.New("User rejected transaction")))
	assert.True(t, isUserRejection(errors.New("MetaMask Tx Signature: User denied transaction signature.")))
	assert.False(t, isUserRejection(errors.New("execution reverted")))
}
