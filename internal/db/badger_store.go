package db

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"quiz-live/internal/game"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

const (
	sessionKeyPrefix = "session/"
	answerKeyPrefix  = "answer/"
)

// BadgerStore archives sessions in an embedded badger database.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens (or creates) the database at path. An empty path keeps
// everything in memory.
func OpenBadger(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	conn, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger %q: %w", path, err)
	}
	return conn, nil
}

func NewBadgerStore(conn *badger.DB) *BadgerStore {
	return &BadgerStore{db: conn}
}

func sessionKey(code string) []byte {
	return []byte(sessionKeyPrefix + code)
}

func answerPrefix(code string) []byte {
	return []byte(answerKeyPrefix + code + "/")
}

func answerKey(r game.AnswerRecord) []byte {
	return []byte(fmt.Sprintf("%s%s/%06d/%s", answerKeyPrefix, r.Code, r.QuestionIndex, r.PlayerID))
}

// Put replaces the snapshot for code and clears answers left by an earlier
// session that used the same code.
func (s *BadgerStore) Put(ctx context.Context, code string, snapshot game.GameSession) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	snapshot.Code = code
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal game %s: %w", code, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if err := deletePrefix(txn, answerPrefix(code)); err != nil {
			return err
		}
		if err := txn.Set(sessionKey(code), data); err != nil {
			return fmt.Errorf("set game %s: %w", code, err)
		}
		return nil
	})
}

func (s *BadgerStore) Update(ctx context.Context, code string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		session, err := readSession(txn, code)
		if err != nil {
			return err
		}
		session.Apply(fields)
		data, err := json.Marshal(session)
		if err != nil {
			return fmt.Errorf("marshal game %s: %w", code, err)
		}
		return txn.Set(sessionKey(code), data)
	})
}

func (s *BadgerStore) Get(ctx context.Context, code string) (game.GameSession, bool, error) {
	if err := ctx.Err(); err != nil {
		return game.GameSession{}, false, err
	}
	var session game.GameSession
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		session, err = readSession(txn, code)
		return err
	})
	if errors.Is(err, ErrSessionMissing) {
		return game.GameSession{}, false, nil
	}
	if err != nil {
		return game.GameSession{}, false, err
	}
	return session, true, nil
}

func (s *BadgerStore) SaveAnswer(ctx context.Context, record game.AnswerRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal answer: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(answerKey(record), data)
	})
}

func (s *BadgerStore) ListAnswers(ctx context.Context, code string) ([]game.AnswerRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]game.AnswerRecord, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := answerPrefix(code)
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix, PrefetchValues: true})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var record game.AnswerRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			}); err != nil {
				return fmt.Errorf("decode answer: %w", err)
			}
			out = append(out, record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].QuestionIndex != out[j].QuestionIndex {
			return out[i].QuestionIndex < out[j].QuestionIndex
		}
		return out[i].SubmittedAt.Before(out[j].SubmittedAt)
	})
	return out, nil
}

func readSession(txn *badger.Txn, code string) (game.GameSession, error) {
	var session game.GameSession
	item, err := txn.Get(sessionKey(code))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return session, fmt.Errorf("game %s: %w", code, ErrSessionMissing)
	}
	if err != nil {
		return session, fmt.Errorf("get game %s: %w", code, err)
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &session)
	})
	if err != nil {
		return session, fmt.Errorf("decode game %s: %w", code, err)
	}
	return session, nil
}

func deletePrefix(txn *badger.Txn, prefix []byte) error {
	it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix})
	keys := make([][]byte, 0)
	for it.Rewind(); it.Valid(); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	it.Close()
	for _, key := range keys {
		if err := txn.Delete(key); err != nil {
			return fmt.Errorf("delete %s: %w", key, err)
		}
	}
	return nil
}
