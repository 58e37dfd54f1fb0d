package repository_test

import (
	"context"
	"encoding/json"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/recall/pkg/model"
	"github.com/m-mizutani/recall/pkg/repository"
)

func setupRedis(t *testing.T, opts ...repository.RedisOption) (*repository.Redis, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	opts = append([]repository.RedisOption{repository.WithTimeout(time.Second)}, opts...)
	repo, err := repository.NewRedis("redis://"+mr.Addr(), opts...)
	gt.NoError(t, err)
	t.Cleanup(func() {
		_ = repo.Close()
	})

	return repo, mr
}

func TestNewRedisInvalidURL(t *testing.T) {
	_, err := repository.NewRedis("invalid://url")
	gt.Error(t, err)
}

func TestRedisPutMemory(t *testing.T) {
	repo, mr := setupRedis(t)
	ctx := context.Background()

	ts := time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)
	m := newMemory(t, "remember the milk", "u1", ts)
	gt.NoError(t, repo.PutMemory(ctx, m))

	raw, err := mr.Get("memory:u1:" + string(m.ID))
	gt.NoError(t, err)

	var stored map[string]any
	gt.NoError(t, json.Unmarshal([]byte(raw), &stored))
	gt.Equal(t, stored["id"], any(string(m.ID)))
	gt.Equal(t, stored["content"], any("remember the milk"))
	gt.Equal(t, stored["userId"], any("u1"))
	gt.Equal(t, stored["timestamp"], any("2026-10-19T09:30:00Z"))

	members, err := mr.ZMembers("memories:u1")
	gt.NoError(t, err)
	gt.A(t, members).Length(1)
	gt.Equal(t, members[0], string(m.ID))

	score, err := mr.ZScore("memories:u1", string(m.ID))
	gt.NoError(t, err)
	gt.Equal(t, score, float64(ts.UnixMilli()))
}

func TestRedisListMemories(t *testing.T) {
	repo, _ := setupRedis(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	var written []*model.Memory
	for i := 0; i < 5; i++ {
		m := newMemory(t, "note", "u1", base.Add(time.Duration(i)*time.Minute))
		gt.NoError(t, repo.PutMemory(ctx, m))
		written = append(written, m)
	}
	gt.NoError(t, repo.PutMemory(ctx, newMemory(t, "note", "u2", base)))

	t.Run("most recent first", func(t *testing.T) {
		got, err := repo.ListMemories(ctx, "u1", 100)
		gt.NoError(t, err)
		gt.A(t, got).Length(5)
		for i, m := range got {
			expected := written[len(written)-1-i]
			gt.Equal(t, m.ID, expected.ID)
			gt.True(t, m.Timestamp.Equal(expected.Timestamp))
		}
	})

	t.Run("limit", func(t *testing.T) {
		got, err := repo.ListMemories(ctx, "u1", 2)
		gt.NoError(t, err)
		gt.A(t, got).Length(2)
		gt.Equal(t, got[0].ID, written[4].ID)
		gt.Equal(t, got[1].ID, written[3].ID)
	})

	t.Run("unknown user", func(t *testing.T) {
		got, err := repo.ListMemories(ctx, "nobody", 10)
		gt.NoError(t, err)
		gt.A(t, got).Length(0)
	})

	t.Run("zero limit", func(t *testing.T) {
		got, err := repo.ListMemories(ctx, "u1", 0)
		gt.NoError(t, err)
		gt.A(t, got).Length(0)
	})
}

func TestRedisListSkipsMissingRecords(t *testing.T) {
	repo, mr := setupRedis(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	kept := newMemory(t, "kept", "u1", base)
	gone := newMemory(t, "gone", "u1", base.Add(time.Second))
	broken := newMemory(t, "broken", "u1", base.Add(2*time.Second))
	for _, m := range []*model.Memory{kept, gone, broken} {
		gt.NoError(t, repo.PutMemory(ctx, m))
	}

	mr.Del("memory:u1:" + string(gone.ID))
	gt.NoError(t, mr.Set("memory:u1:"+string(broken.ID), "{not json"))

	got, err := repo.ListMemories(ctx, "u1", 10)
	gt.NoError(t, err)
	gt.A(t, got).Length(1)
	gt.Equal(t, got[0].ID, kept.ID)
}

func TestRedisPartialWrite(t *testing.T) {
	repo, mr := setupRedis(t)
	ctx := context.Background()

	// index key holding a plain string makes ZADD fail with WRONGTYPE
	gt.NoError(t, mr.Set("memories:u1", "occupied"))

	m := newMemory(t, "half written", "u1", time.Now().UTC())
	err := repo.PutMemory(ctx, m)
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, model.ErrTagPartialWrite))
	gt.False(t, goerr.HasTag(err, model.ErrTagBackendUnavailable))

	// the record itself is stored but unreachable through the index
	gt.True(t, mr.Exists("memory:u1:"+string(m.ID)))
}

func TestRedisAtomicWrite(t *testing.T) {
	repo, mr := setupRedis(t, repository.WithAtomicWrite())
	ctx := context.Background()

	m := newMemory(t, "in a transaction", "u1", time.Now().UTC())
	gt.NoError(t, repo.PutMemory(ctx, m))
	gt.True(t, mr.Exists("memory:u1:"+string(m.ID)))

	got, err := repo.ListMemories(ctx, "u1", 10)
	gt.NoError(t, err)
	gt.A(t, got).Length(1)
	gt.Equal(t, got[0].Content, "in a transaction")
}

func TestRedisAtomicPartialWrite(t *testing.T) {
	repo, mr := setupRedis(t, repository.WithAtomicWrite())
	ctx := context.Background()

	gt.NoError(t, mr.Set("memories:u1", "occupied"))

	m := newMemory(t, "half written in transaction", "u1", time.Now().UTC())
	err := repo.PutMemory(ctx, m)
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, model.ErrTagPartialWrite))
	gt.False(t, goerr.HasTag(err, model.ErrTagBackendUnavailable))

	// EXEC has no rollback, so the SET stays applied
	gt.True(t, mr.Exists("memory:u1:"+string(m.ID)))
}

func TestRedisAtomicUnavailable(t *testing.T) {
	repo, mr := setupRedis(t, repository.WithAtomicWrite())
	ctx := context.Background()

	mr.Close()

	err := repo.PutMemory(ctx, newMemory(t, "lost", "u1", time.Now()))
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, model.ErrTagBackendUnavailable))
	gt.False(t, goerr.HasTag(err, model.ErrTagPartialWrite))
}

func TestRedisCallDeadline(t *testing.T) {
	// accepts connections and never replies
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	gt.NoError(t, err)

	var mu sync.Mutex
	var conns []net.Conn
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, conn)
			mu.Unlock()
		}
	}()
	t.Cleanup(func() {
		_ = ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, conn := range conns {
			_ = conn.Close()
		}
	})

	repo, err := repository.NewRedis("redis://"+ln.Addr().String(),
		repository.WithTimeout(100*time.Millisecond))
	gt.NoError(t, err)
	t.Cleanup(func() {
		_ = repo.Close()
	})

	start := time.Now()
	err = repo.Ping(context.Background())
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, model.ErrTagBackendUnavailable))
	gt.True(t, time.Since(start) < time.Second)
}

func TestRedisUnavailable(t *testing.T) {
	repo, mr := setupRedis(t)
	ctx := context.Background()

	gt.NoError(t, repo.Ping(ctx))
	mr.Close()

	err := repo.Ping(ctx)
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, model.ErrTagBackendUnavailable))

	err = repo.PutMemory(ctx, newMemory(t, "lost", "u1", time.Now()))
	gt.True(t, goerr.HasTag(err, model.ErrTagBackendUnavailable))

	_, err = repo.ListMemories(ctx, "u1", 10)
	gt.True(t, goerr.HasTag(err, model.ErrTagBackendUnavailable))

	gt.NoError(t, mr.Restart())
	gt.NoError(t, repo.Ping(ctx))
}

func TestRedisServerError(t *testing.T) {
	repo, mr := setupRedis(t)
	ctx := context.Background()

	mr.SetError("LOADING Redis is loading the dataset in memory")
	defer mr.SetError("")

	_, err := repo.ListMemories(ctx, "u1", 10)
	gt.True(t, goerr.HasTag(err, model.ErrTagBackendUnavailable))
}
