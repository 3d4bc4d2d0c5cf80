package repository

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jaam8/vote_tracker/internal/models"
	"github.com/tarantool/go-tarantool"
	"go.uber.org/zap"
)

const (
	votesSpace   = "vote_logs"
	primaryIndex = "primary"
	pollIndex    = "poll"
	selectPage   = 1000
)

// Conn is the part of *tarantool.Connection the repository uses.
type Conn interface {
	Select(space, index interface{}, offset, limit, iterator uint32, key interface{}) (*tarantool.Response, error)
	Replace(space interface{}, tuple interface{}) (*tarantool.Response, error)
}

type VoteRepository struct {
	db Conn
	l  *zap.Logger
}

func New(db Conn, l *zap.Logger) *VoteRepository {
	return &VoteRepository{
		db: db,
		l:  l,
	}
}

// SaveVote stores one observed log. Saving the same log twice overwrites it.
func (r *VoteRepository) SaveVote(poll uint64, rec models.VoteRecord) error {
	if rec.Synthetic {
		return fmt.Errorf("repository: refusing to save synthetic vote %s: %w", rec.TxHash.Hex(), models.ErrFailedToProcessData)
	}
	tuple := []interface{}{
		rec.TxHash.Hex(),
		uint64(rec.LogIndex),
		poll,
		uint64(rec.OptionIndex),
		rec.Voter.Hex(),
		rec.Timestamp,
		rec.BlockNumber,
	}
	r.l.Debug("saving vote", zap.Any("tuple", tuple))

	resp, err := r.db.Replace(votesSpace, tuple)
	if err != nil {
		r.l.Debug("error replacing vote", zap.Error(err))
		return fmt.Errorf("repository: database replace error: %w", err)
	}
	r.l.Debug("tarantool response",
		zap.Uint32("status_code", resp.Code),
		zap.Any("resp", resp.Data),
		zap.String("error", resp.Error))
	return nil
}

// ListVotes returns every stored vote of a poll.
func (r *VoteRepository) ListVotes(poll uint64) ([]models.VoteRecord, error) {
	var records []models.VoteRecord
	for offset := uint32(0); ; offset += selectPage {
		resp, err := r.db.Select(votesSpace, pollIndex, offset, selectPage, tarantool.IterEq, []interface{}{poll})
		if err != nil {
			r.l.Debug("failed to select votes", zap.Error(err))
			return nil, fmt.Errorf("repository: database select error: %w", err)
		}
		r.l.Debug("tarantool response",
			zap.Uint32("status_code", resp.Code),
			zap.Int("rows", len(resp.Data)),
			zap.String("error", resp.Error))

		for _, row := range resp.Data {
			rec, err := parseVote(row)
			if err != nil {
				r.l.Debug("unexpected vote tuple", zap.Any("tuple", row), zap.Error(err))
				return nil, err
			}
			records = append(records, rec)
		}
		if len(resp.Data) < selectPage {
			return records, nil
		}
	}
}

func parseVote(row interface{}) (models.VoteRecord, error) {
	tuple, ok := row.([]interface{})
	if !ok || len(tuple) < 7 {
		return models.VoteRecord{}, fmt.Errorf("repository: malformed vote tuple: %w", models.ErrFailedToProcessData)
	}
	txHash, ok1 := tuple[0].(string)
	voter, ok2 := tuple[4].(string)
	logIndex, ok3 := toUint64(tuple[1])
	option, ok4 := toUint64(tuple[3])
	ts, ok5 := toUint64(tuple[5])
	block, ok6 := toUint64(tuple[6])
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 || !ok6 || !common.IsHexAddress(voter) {
		return models.VoteRecord{}, fmt.Errorf("repository: unexpected vote field types: %w", models.ErrFailedToProcessData)
	}
	return models.VoteRecord{
		Voter:       common.HexToAddress(voter),
		OptionIndex: int(option),
		Timestamp:   int64(ts),
		BlockNumber: block,
		TxHash:      common.HexToHash(txHash),
		LogIndex:    uint(logIndex),
	}, nil
}

// toUint64 accepts whichever integer type msgpack decoded a number into.
func toUint64(v interface{}) (uint64, bool) {
	switch x := v.(type) {
	case uint64:
		return x, true
	case uint32:
		return uint64(x), true
	case uint16:
		return uint64(x), true
	case uint8:
		return uint64(x), true
	case uint:
		return uint64(x), true
	case int64:
		return uint64(x), x >= 0
	case int32:
		return uint64(x), x >= 0
	case int16:
		return uint64(x), x >= 0
	case int8:
		return uint64(x), x >= 0
	case int:
		return uint64(x), x >= 0
	default:
		return 0, false
	}
}
