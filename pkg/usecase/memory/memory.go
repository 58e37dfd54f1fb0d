package memory

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/recall/pkg/model"
	"github.com/m-mizutani/recall/pkg/repository"
	"github.com/m-mizutani/recall/pkg/utils/logging"
)

const (
	defaultCandidateLimit = 100
	defaultResultLimit    = 10
)

// UseCase records and searches memories. It prefers the durable repository
// and serves from the fallback store whenever the repository is unavailable.
// Backend selection is made fresh on every call.
type UseCase struct {
	durable  repository.Repository
	fallback *repository.Fallback

	defaultUser    model.UserID
	candidateLimit int
	resultLimit    int
	now            func() time.Time
}

// Option is a functional option for UseCase
type Option func(*UseCase)

// WithDefaultUser sets the user applied when a caller omits one
func WithDefaultUser(userID model.UserID) Option {
	return func(uc *UseCase) {
		uc.defaultUser = userID
	}
}

// WithCandidateLimit sets how many recent memories are read from the durable
// store before ranking
func WithCandidateLimit(n int) Option {
	return func(uc *UseCase) {
		uc.candidateLimit = n
	}
}

// WithResultLimit sets the maximum number of search results
func WithResultLimit(n int) Option {
	return func(uc *UseCase) {
		uc.resultLimit = n
	}
}

// WithClock replaces time.Now for timestamp assignment
func WithClock(now func() time.Time) Option {
	return func(uc *UseCase) {
		uc.now = now
	}
}

// New creates a memory UseCase. The UseCase owns both stores; call Close when
// done.
func New(
	durable repository.Repository,
	fallback *repository.Fallback,
	opts ...Option,
) *UseCase {
	uc := &UseCase{
		durable:        durable,
		fallback:       fallback,
		defaultUser:    model.DefaultUserID,
		candidateLimit: defaultCandidateLimit,
		resultLimit:    defaultResultLimit,
		now:            time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// DefaultUser returns the user applied when a caller omits one
func (uc *UseCase) DefaultUser() model.UserID {
	return uc.defaultUser
}

func (uc *UseCase) userOrDefault(userID model.UserID) model.UserID {
	if userID == "" {
		return uc.defaultUser
	}
	return userID
}

// Record creates a memory and stores it in exactly one backend
func (uc *UseCase) Record(ctx context.Context, content string, userID model.UserID) (*model.Memory, error) {
	memory, err := model.NewMemory(content, uc.userOrDefault(userID), uc.now())
	if err != nil {
		return nil, err
	}

	logger := logging.From(ctx).With("memory_id", memory.ID, "user_id", memory.UserID)

	err = uc.durable.PutMemory(ctx, memory)
	switch {
	case err == nil:
		logger.Debug("memory recorded")

	case goerr.HasTag(err, model.ErrTagPartialWrite):
		logger.Warn("memory stored without recency index entry", "error", err)

	case goerr.HasTag(err, model.ErrTagBackendUnavailable):
		logger.Warn("durable store unavailable, recording to fallback store", "error", err)
		uc.fallback.Append(memory)

	default:
		return nil, goerr.Wrap(err, "failed to record memory",
			goerr.V("user_id", memory.UserID),
			goerr.T(model.ErrTagInternal))
	}

	return memory, nil
}

// Search returns the user's most recent memories containing query,
// case-insensitively
func (uc *UseCase) Search(ctx context.Context, query string, userID model.UserID) ([]*model.Memory, error) {
	userID = uc.userOrDefault(userID)

	candidates, err := uc.durable.ListMemories(ctx, userID, uc.candidateLimit)
	if err != nil {
		if !goerr.HasTag(err, model.ErrTagBackendUnavailable) {
			return nil, goerr.Wrap(err, "failed to search memories",
				goerr.V("user_id", userID),
				goerr.T(model.ErrTagInternal))
		}

		logging.From(ctx).Warn("durable store unavailable, searching fallback store",
			"user_id", userID,
			"error", err)
		candidates = uc.fallback.Query(userID)
	}

	return Rank(candidates, query, uc.resultLimit), nil
}

// Status reports whether the durable store currently answers a ping
func (uc *UseCase) Status(ctx context.Context) model.BackendStatus {
	if err := uc.durable.Ping(ctx); err != nil {
		logging.From(ctx).Debug("durable store ping failed", "error", err)
		return model.BackendUnavailable
	}
	return model.BackendConnected
}

// Close releases the durable store connection. Fallback memories are dropped
// with the process.
func (uc *UseCase) Close() error {
	if err := uc.durable.Close(); err != nil {
		return goerr.Wrap(err, "failed to close durable store")
	}
	return nil
}
