package ledger

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/chainpress/newsverify/src/verification"
)

// attestationABI is the deployed verification contract's surface. The hash
// width and payload encoding here must match the contract exactly; a
// mismatch surfaces as a failed submission.
const attestationABI = `[
  {"type":"function","name":"createVerificationProof","stateMutability":"nonpayable",
   "inputs":[{"name":"articleHash","type":"bytes32"},{"name":"payload","type":"bytes"}],
   "outputs":[]},
  {"type":"function","name":"getVerificationState","stateMutability":"view",
   "inputs":[{"name":"articleHash","type":"bytes32"}],
   "outputs":[{"name":"state","type":"string"},{"name":"exists","type":"bool"}]},
  {"type":"function","name":"verifyProof","stateMutability":"view",
   "inputs":[{"name":"articleHash","type":"bytes32"}],
   "outputs":[{"name":"","type":"bool"}]},
  {"type":"event","name":"ProofCreated","anonymous":false,
   "inputs":[{"name":"articleHash","type":"bytes32","indexed":true},
             {"name":"payloadDigest","type":"bytes32","indexed":false}]}
]`

const proofGasLimit = 200_000

// EthClient talks to the attestation contract over an Ethereum JSON-RPC
// endpoint. The connection and signing key are long-lived shared resources;
// all methods are safe for concurrent use.
type EthClient struct {
	rpc      *ethclient.Client
	contract common.Address
	abi      abi.ABI
	key      *ecdsa.PrivateKey
	from     common.Address
	chainID  *big.Int
}

// EthConfig is the construction-time configuration for the ledger backend.
// Endpoint, contract address and signer key are explicit inputs, never read
// from ambient state inside the client.
type EthConfig struct {
	RPCURL          string
	ContractAddress string
	PrivateKeyHex   string
}

func NewEthClient(ctx context.Context, cfg EthConfig) (*EthClient, error) {
	rpc, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial ledger rpc: %w", err)
	}
	parsed, err := abi.JSON(strings.NewReader(attestationABI))
	if err != nil {
		return nil, fmt.Errorf("parse attestation abi: %w", err)
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse signer key: %w", err)
	}
	chainID, err := rpc.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("query chain id: %w", err)
	}
	return &EthClient{
		rpc:      rpc,
		contract: common.HexToAddress(cfg.ContractAddress),
		abi:      parsed,
		key:      key,
		from:     crypto.PubkeyToAddress(key.PublicKey),
		chainID:  chainID,
	}, nil
}

func (c *EthClient) Close() {
	c.rpc.Close()
}

// CreateVerificationProof signs and submits the attestation write. The
// returned reference is the transaction hash; finality is the caller's
// problem.
func (c *EthClient) CreateVerificationProof(ctx context.Context, articleHash [32]byte, payload []byte) (string, error) {
	data, err := c.abi.Pack("createVerificationProof", articleHash, payload)
	if err != nil {
		return "", fmt.Errorf("pack createVerificationProof: %w", err)
	}

	nonce, err := c.rpc.PendingNonceAt(ctx, c.from)
	if err != nil {
		return "", fmt.Errorf("pending nonce: %w", err)
	}
	gasPrice, err := c.rpc.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("suggest gas price: %w", err)
	}

	tx := types.NewTransaction(nonce, c.contract, big.NewInt(0), proofGasLimit, gasPrice, data)
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(c.chainID), c.key)
	if err != nil {
		return "", fmt.Errorf("sign tx: %w", err)
	}

	if err := c.rpc.SendTransaction(ctx, signed); err != nil {
		if isDuplicateRevert(err) {
			return "", fmt.Errorf("%w: %s", ErrAlreadyExists, verification.HashHex(articleHash))
		}
		return "", fmt.Errorf("send tx: %w", err)
	}
	return signed.Hash().Hex(), nil
}

// GetVerificationState reads the contract's state label for the hash.
func (c *EthClient) GetVerificationState(ctx context.Context, articleHash [32]byte) (string, error) {
	out, err := c.call(ctx, "getVerificationState", articleHash)
	if err != nil {
		return "", err
	}
	state, _ := out[0].(string)
	exists, _ := out[1].(bool)
	if !exists {
		return "", fmt.Errorf("%w: no proof for %s", verification.ErrNotFound, verification.HashHex(articleHash))
	}
	return state, nil
}

// VerifyProof reports whether a confirmed proof exists for the hash.
func (c *EthClient) VerifyProof(ctx context.Context, articleHash [32]byte) (bool, error) {
	out, err := c.call(ctx, "verifyProof", articleHash)
	if err != nil {
		return false, err
	}
	ok, _ := out[0].(bool)
	return ok, nil
}

// GetProof resolves the full proof record for a hash: state from the
// contract, transaction reference and block from the ProofCreated event log.
func (c *EthClient) GetProof(ctx context.Context, articleHash [32]byte) (verification.ProofRecord, error) {
	state, err := c.GetVerificationState(ctx, articleHash)
	if err != nil {
		return verification.ProofRecord{}, err
	}

	logs, err := c.rpc.FilterLogs(ctx, ethereum.FilterQuery{
		Addresses: []common.Address{c.contract},
		Topics: [][]common.Hash{
			{c.abi.Events["ProofCreated"].ID},
			{common.Hash(articleHash)},
		},
	})
	if err != nil {
		return verification.ProofRecord{}, fmt.Errorf("filter proof logs: %w", err)
	}
	if len(logs) == 0 {
		return verification.ProofRecord{}, fmt.Errorf("%w: proof event for %s", verification.ErrNotFound, verification.HashHex(articleHash))
	}

	lg := logs[len(logs)-1]
	ts, err := c.blockTime(ctx, lg.BlockNumber)
	if err != nil {
		return verification.ProofRecord{}, err
	}
	return verification.ProofRecord{
		TxHash:      lg.TxHash.Hex(),
		BlockNumber: lg.BlockNumber,
		Timestamp:   ts,
		State:       state,
	}, nil
}

// ProofByTx snapshots the write identified by txRef. Until the transaction
// is mined the record stays pending; a reverted transaction surfaces as a
// failed submission rather than a proof.
func (c *EthClient) ProofByTx(ctx context.Context, txRef string) (verification.ProofRecord, error) {
	receipt, err := c.rpc.TransactionReceipt(ctx, common.HexToHash(txRef))
	if errors.Is(err, ethereum.NotFound) {
		return verification.ProofRecord{TxHash: txRef, State: verification.ProofStatePending}, nil
	}
	if err != nil {
		return verification.ProofRecord{}, fmt.Errorf("transaction receipt: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return verification.ProofRecord{}, fmt.Errorf("%w: tx %s reverted", verification.ErrSubmissionFailed, txRef)
	}

	ts, err := c.blockTime(ctx, receipt.BlockNumber.Uint64())
	if err != nil {
		return verification.ProofRecord{}, err
	}
	return verification.ProofRecord{
		TxHash:      txRef,
		BlockNumber: receipt.BlockNumber.Uint64(),
		Timestamp:   ts,
		State:       verification.ProofStateVerified,
	}, nil
}

func (c *EthClient) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	raw, err := c.rpc.CallContract(ctx, ethereum.CallMsg{To: &c.contract, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	out, err := c.abi.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return out, nil
}

func (c *EthClient) blockTime(ctx context.Context, number uint64) (time.Time, error) {
	header, err := c.rpc.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		return time.Time{}, fmt.Errorf("header %d: %w", number, err)
	}
	return time.Unix(int64(header.Time), 0).UTC(), nil
}

// isDuplicateRevert matches the contract's duplicate-hash revert reason.
func isDuplicateRevert(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already exists") || strings.Contains(msg, "duplicate proof")
}
