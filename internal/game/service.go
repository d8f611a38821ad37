package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vlbabney57/GameCrypt-Engine/pkg/codec"
	"github.com/vlbabney57/GameCrypt-Engine/pkg/events"
	"github.com/vlbabney57/GameCrypt-Engine/pkg/gateway"
	"github.com/vlbabney57/GameCrypt-Engine/pkg/logger"
	"github.com/vlbabney57/GameCrypt-Engine/pkg/metrics"
	"github.com/vlbabney57/GameCrypt-Engine/pkg/model"
	"github.com/vlbabney57/GameCrypt-Engine/pkg/parser"
	"github.com/vlbabney57/GameCrypt-Engine/pkg/retry"
	"github.com/vlbabney57/GameCrypt-Engine/pkg/wallet"
)

const publishTimeout = 30 * time.Second

// Options tunes timings and write behaviour of the Service.
type Options struct {
	SuccessBanner   time.Duration
	ErrorBanner     time.Duration
	DecryptDelay    time.Duration
	ConflictRetries int
	DurationDays    int
	Now             func() time.Time
}

// DefaultOptions mirrors the config defaults.
func DefaultOptions() Options {
	return Options{
		SuccessBanner:   2 * time.Second,
		ErrorBanner:     3 * time.Second,
		DecryptDelay:    1500 * time.Millisecond,
		ConflictRetries: 5,
		DurationDays:    30,
		Now:             time.Now,
	}
}

// Service drives the State from user actions, the gateway and the wallet.
// Gateway and wallet calls run without holding the lock.
type Service struct {
	logger  *logger.Logger
	gateway gateway.Gateway
	wallet  wallet.Wallet
	events  events.Publisher
	opts    Options

	mu          sync.Mutex
	state       State
	params      wallet.SignatureParams
	bannerTimer *time.Timer
	resetTimer  *time.Timer
	closed      bool

	publishing sync.WaitGroup
}

// NewService creates a Service with an empty State.
func NewService(
	l *logger.Logger,
	gw gateway.Gateway,
	w wallet.Wallet,
	pub events.Publisher,
	opts Options,
) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ConflictRetries < 1 {
		opts.ConflictRetries = 1
	}
	if pub == nil {
		pub = events.NopPublisher{}
	}
	return &Service{
		logger:  l,
		gateway: gw,
		wallet:  w,
		events:  pub,
		opts:    opts,
		state:   NewState(),
	}
}

// Init prepares the signature parameters and performs the first load.
func (s *Service) Init(ctx context.Context) error {
	if err := s.InitSignatureParams(ctx); err != nil {
		s.logger.Warn("signature parameters incomplete", zap.Error(err))
	}
	return s.Load(ctx)
}

// InitSignatureParams derives the values embedded in decrypt messages. A
// disconnected wallet leaves the chain id at zero.
func (s *Service) InitSignatureParams(ctx context.Context) error {
	publicKey, err := wallet.GeneratePublicKey()
	if err != nil {
		return fmt.Errorf("failed to generate public key: %w", err)
	}
	params := wallet.SignatureParams{
		PublicKey:      publicKey,
		StartTimestamp: s.opts.Now().Unix(),
		DurationDays:   s.opts.DurationDays,
	}

	var errs []error
	if addr, err := s.gateway.Address(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to resolve contract address: %w", err))
	} else {
		params.ContractAddress = addr
	}
	if s.wallet.Connected() {
		if chainID, err := s.wallet.ChainID(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to query chain id: %w", err))
		} else {
			params.ChainID = chainID
		}
	}

	s.mu.Lock()
	s.params = params
	s.mu.Unlock()
	return errors.Join(errs...)
}

// SignatureParams returns the parameters set by InitSignatureParams.
func (s *Service) SignatureParams() wallet.SignatureParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

// CheckAvailable returns ErrGatewayUnavailable when the gateway says so.
func (s *Service) CheckAvailable(ctx context.Context) error {
	ok, err := s.gateway.IsAvailable(ctx)
	if err != nil {
		return fmt.Errorf("availability check: %w", err)
	}
	if !ok {
		return ErrGatewayUnavailable
	}
	return nil
}

// Load re-reads both collections. Missing or unparsable blobs become empty
// collections; only gateway failures are reported.
func (s *Service) Load(ctx context.Context) error {
	s.mu.Lock()
	s.state.BeginRefresh()
	s.mu.Unlock()

	players, board, err := s.read(ctx)
	if err != nil {
		s.logger.Error("failed to load data", err, zap.String("backend", s.gateway.Backend()))
		s.mu.Lock()
		s.state.EndRefresh()
		s.showBannerLocked(StatusError, MsgLoadFailed, s.opts.ErrorBanner)
		s.mu.Unlock()
		return fmt.Errorf("load data: %w", err)
	}

	metrics.PlayersLoaded.Set(float64(len(players)))

	s.mu.Lock()
	s.state.ApplyLoad(players, board)
	s.mu.Unlock()
	return nil
}

func (s *Service) read(ctx context.Context) ([]model.PlayerRecord, []model.LeaderboardEntry, error) {
	if err := s.CheckAvailable(ctx); err != nil {
		if !errors.Is(err, ErrGatewayUnavailable) {
			return nil, nil, err
		}
		s.logger.Warn("contract reports unavailable", zap.String("backend", s.gateway.Backend()))
		s.mu.Lock()
		s.showBannerLocked(StatusError, MsgUnavailable, s.opts.ErrorBanner)
		s.mu.Unlock()
	}

	data, err := s.gateway.GetData(ctx, model.KeyGameData)
	if err != nil {
		return nil, nil, fmt.Errorf("get %s: %w", model.KeyGameData, err)
	}
	players := s.parsePlayers(data)

	data, err = s.gateway.GetData(ctx, model.KeyLeaderboard)
	if err != nil {
		return nil, nil, fmt.Errorf("get %s: %w", model.KeyLeaderboard, err)
	}
	board, perr := parser.LeaderboardOrEmpty(data)
	if perr != nil {
		metrics.CollectionParseErrorsTotal.WithLabelValues(model.KeyLeaderboard).Inc()
		s.logger.Debug("treating unparsable blob as empty", zap.String("key", model.KeyLeaderboard), zap.Error(perr))
	}
	return players, board, nil
}

func (s *Service) parsePlayers(data []byte) []model.PlayerRecord {
	players, err := parser.PlayersOrEmpty(data)
	if err != nil {
		metrics.CollectionParseErrorsTotal.WithLabelValues(model.KeyGameData).Inc()
		s.logger.Debug("treating unparsable blob as empty", zap.String("key", model.KeyGameData), zap.Error(err))
	}
	return players
}

// CreatePlayer submits the current form: the record and its leaderboard
// entry are appended to the stored collections, then everything is reloaded.
func (s *Service) CreatePlayer(ctx context.Context) (model.PlayerRecord, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return model.PlayerRecord{}, ErrClosed
	}
	if !s.wallet.Connected() || s.wallet.Address() == "" {
		s.showBannerLocked(StatusError, MsgConnectWallet, s.opts.ErrorBanner)
		s.mu.Unlock()
		return model.PlayerRecord{}, ErrWalletNotConnected
	}
	if s.state.Creating {
		s.mu.Unlock()
		return model.PlayerRecord{}, ErrCreateInFlight
	}
	if !s.state.Form.Complete() {
		s.mu.Unlock()
		return model.PlayerRecord{}, ErrFormIncomplete
	}
	form := s.state.Form
	s.state.BeginCreate()
	s.mu.Unlock()

	hp, atk, def := codec.ParseInput(form.HP), codec.ParseInput(form.ATK), codec.ParseInput(form.DEF)
	record := model.PlayerRecord{
		PlayerName:   form.PlayerName,
		EncryptedHP:  codec.MustEncode(hp),
		EncryptedATK: codec.MustEncode(atk),
		EncryptedDEF: codec.MustEncode(def),
		Timestamp:    s.opts.Now().Unix(),
		Owner:        s.wallet.Address(),
	}
	entry := model.LeaderboardEntry{Name: form.PlayerName, Score: hp + atk + def}

	record, receipt, err := s.persist(ctx, record, entry)
	if err != nil {
		metrics.PlayerCreateErrorsTotal.Inc()
		s.logger.Error("failed to create player", err, zap.String("player", form.PlayerName))

		msg := MsgSubmissionFailed + err.Error()
		if errors.Is(err, gateway.ErrRejected) {
			msg = MsgRejected
		}
		s.mu.Lock()
		s.state.EndCreate()
		s.showBannerLocked(StatusError, msg, s.opts.ErrorBanner)
		s.mu.Unlock()
		return model.PlayerRecord{}, fmt.Errorf("create player: %w", err)
	}

	metrics.PlayersCreatedTotal.Inc()
	s.logger.Info("player created",
		zap.Int("id", record.ID),
		zap.String("player", record.PlayerName),
		zap.String("tx", receipt.TxHash),
	)

	s.mu.Lock()
	s.state.EndCreate()
	s.showBannerLocked(StatusSuccess, MsgCreated, s.opts.SuccessBanner)
	s.scheduleFormResetLocked(s.opts.SuccessBanner)
	s.mu.Unlock()

	s.publish(record, entry.Score, receipt.TxHash)

	if err := s.Load(ctx); err != nil {
		s.logger.Warn("reload after create failed", zap.Error(err))
	}
	return record, nil
}

// persist appends to both collections. Versioned gateways get a
// read-append-write loop that retries on conflicts; others are written
// last-write-wins from a fresh read.
func (s *Service) persist(ctx context.Context, record model.PlayerRecord, entry model.LeaderboardEntry) (model.PlayerRecord, gateway.Receipt, error) {
	var receipt gateway.Receipt

	err := s.appendBlob(ctx, model.KeyGameData, func(current []byte) ([]byte, error) {
		players, perr := parser.PlayersOrEmpty(current)
		if perr != nil {
			s.warnReplacing(model.KeyGameData, current, perr)
		}
		record.ID = len(players) + 1
		return parser.MarshalPlayers(append(players, record))
	}, &receipt)
	if err != nil {
		return record, receipt, err
	}

	err = s.appendBlob(ctx, model.KeyLeaderboard, func(current []byte) ([]byte, error) {
		board, perr := parser.LeaderboardOrEmpty(current)
		if perr != nil {
			s.warnReplacing(model.KeyLeaderboard, current, perr)
		}
		return parser.MarshalLeaderboard(append(board, entry))
	}, nil)
	return record, receipt, err
}

// warnReplacing reports a stored blob that a create is about to overwrite
// because it did not parse.
func (s *Service) warnReplacing(key string, current []byte, err error) {
	metrics.CollectionParseErrorsTotal.WithLabelValues(key).Inc()
	s.logger.Warn("replacing unparsable blob",
		zap.String("key", key),
		zap.Int("bytes", len(current)),
		zap.Error(err),
	)
}

func (s *Service) appendBlob(ctx context.Context, key string, next func(current []byte) ([]byte, error), out *gateway.Receipt) error {
	v, versioned := gateway.AsVersioned(s.gateway)
	if !versioned {
		current, err := s.gateway.GetData(ctx, key)
		if err != nil {
			return fmt.Errorf("get %s: %w", key, err)
		}
		data, err := next(current)
		if err != nil {
			return err
		}
		r, err := s.gateway.SetData(ctx, key, data)
		if err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
		if out != nil {
			*out = r
		}
		return nil
	}

	return retry.Do(ctx, func(ctx context.Context, attempt int) error {
		blob, err := v.GetVersioned(ctx, key)
		if err != nil {
			return fmt.Errorf("get %s: %w", key, err)
		}
		data, err := next(blob.Data)
		if err != nil {
			return err
		}
		r, err := v.SetIfVersion(ctx, key, data, blob.Version)
		if err != nil {
			if errors.Is(err, ErrVersionConflict) {
				s.logger.Debug("concurrent write, re-appending", zap.String("key", key), zap.Int("attempt", attempt))
			}
			return fmt.Errorf("set %s: %w", key, err)
		}
		if out != nil {
			*out = r
		}
		return nil
	}, retry.ConflictOptions(s.opts.ConflictRetries, ErrVersionConflict))
}

func (s *Service) publish(record model.PlayerRecord, score float64, txHash string) {
	s.publishing.Add(1)
	go func() {
		defer s.publishing.Done()
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		<-s.events.PublishAsync(ctx, events.PlayerCreated(record, score, txHash))
	}()
}

// Decrypt reveals a stat of the selected player after the wallet signs the
// decrypt message. Calling it for a field already shown hides it again and
// returns nil. A rejected signature yields ErrSignatureRejected and no banner.
// Only one decrypt runs at a time; others get ErrDecryptInFlight.
func (s *Service) Decrypt(ctx context.Context, field model.Field) (*float64, error) {
	if !field.Valid() {
		return nil, ErrUnknownField
	}

	s.mu.Lock()
	if s.state.Selected == nil {
		s.mu.Unlock()
		return nil, ErrNoSelection
	}
	if s.state.Decrypted.Get(field) != nil {
		s.state.Decrypted.Clear(field)
		s.mu.Unlock()
		metrics.DecryptRequestsTotal.WithLabelValues("hidden").Inc()
		return nil, nil
	}
	if s.state.Decrypting {
		s.mu.Unlock()
		return nil, ErrDecryptInFlight
	}
	if !s.wallet.Connected() {
		s.showBannerLocked(StatusError, MsgConnectWallet, s.opts.ErrorBanner)
		s.mu.Unlock()
		metrics.DecryptRequestsTotal.WithLabelValues("not_connected").Inc()
		return nil, ErrWalletNotConnected
	}
	selectedID := s.state.Selected.ID
	encoded := s.state.Selected.Encrypted(field)
	message := s.params.Message()
	s.state.Decrypting = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.state.Decrypting = false
		s.mu.Unlock()
	}()

	if _, err := s.wallet.SignMessage(ctx, message); err != nil {
		metrics.DecryptRequestsTotal.WithLabelValues("rejected").Inc()
		s.logger.Debug("decrypt signature not given", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrSignatureRejected, err)
	}

	if s.opts.DecryptDelay > 0 {
		timer := time.NewTimer(s.opts.DecryptDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	value, err := codec.Decode(encoded)
	if err != nil {
		metrics.DecryptRequestsTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("decode %s: %w", field, err)
	}

	s.mu.Lock()
	if s.state.Selected != nil && s.state.Selected.ID == selectedID {
		s.state.Decrypted.Set(field, value)
	}
	s.mu.Unlock()

	metrics.DecryptRequestsTotal.WithLabelValues("decrypted").Inc()
	return &value, nil
}

func (s *Service) OpenModal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.OpenModal()
}

func (s *Service) CloseModal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.CloseModal()
}

func (s *Service) UpdateForm(f Form) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.UpdateForm(f)
}

func (s *Service) Select(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Select(id)
}

func (s *Service) CloseSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.CloseSelection()
}

func (s *Service) SetTab(t Tab) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.SetTab(t)
}

// Player returns a loaded record by id.
func (s *Service) Player(id int) (model.PlayerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.state.FindPlayer(id)
	if !ok {
		return model.PlayerRecord{}, ErrPlayerNotFound
	}
	return p, nil
}

// Snapshot returns a copy of the current State.
func (s *Service) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// showBannerLocked displays a banner and schedules its removal after d.
// Callers hold s.mu.
func (s *Service) showBannerLocked(status TxStatus, msg string, d time.Duration) {
	seq := s.state.ShowBanner(status, msg)
	if s.bannerTimer != nil {
		s.bannerTimer.Stop()
		s.bannerTimer = nil
	}
	if s.closed {
		return
	}
	s.bannerTimer = time.AfterFunc(d, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			return
		}
		s.state.HideBanner(seq)
	})
}

// scheduleFormResetLocked closes the create modal and clears the form after
// d, whichever banner is showing by then. Callers hold s.mu.
func (s *Service) scheduleFormResetLocked(d time.Duration) {
	if s.resetTimer != nil {
		s.resetTimer.Stop()
		s.resetTimer = nil
	}
	if s.closed {
		return
	}
	s.resetTimer = time.AfterFunc(d, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			return
		}
		s.state.CloseModal()
		s.state.ResetForm()
	})
}

// Close stops pending banner and form timers and waits for in-flight event
// publishes. Further creates fail with ErrClosed.
func (s *Service) Close() error {
	s.mu.Lock()
	s.closed = true
	for _, t := range []*time.Timer{s.bannerTimer, s.resetTimer} {
		if t != nil {
			t.Stop()
		}
	}
	s.bannerTimer, s.resetTimer = nil, nil
	s.mu.Unlock()

	s.publishing.Wait()
	return nil
}
