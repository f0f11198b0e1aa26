// Package dynamostore implements storage.Store on DynamoDB. Writes inside WithTx are staged
// and committed with one TransactWriteItems call; keyed reads see the staged items, queries
// see only committed data.
package dynamostore

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"wedmatch_server/logger"
	"wedmatch_server/models"
	"wedmatch_server/storage"
)

// DynamoDB's transaction item limit.
const maxTransactItems = 100

// Tables names the four tables the store reads and writes.
type Tables struct {
	Signals  string
	Matches  string
	Openings string
	Profiles string
}

func DefaultTables() Tables {
	return Tables{
		Signals:  models.SignalsTable,
		Matches:  models.MatchesTable,
		Openings: models.OpeningMessagesTable,
		Profiles: models.UserProfilesTable,
	}
}

type Store struct {
	db     *Client
	tables Tables
	log    *logger.Logger
	direct session
}

var _ storage.Store = (*Store)(nil)

func New(db *Client, tables Tables, log *logger.Logger) *Store {
	return &Store{db: db, tables: tables, log: log.With("store", "dynamodb"), direct: &directSession{db: db}}
}

func (s *Store) Signals() storage.SignalStore {
	return &signals{db: s.db, table: s.tables.Signals, sess: s.direct}
}

func (s *Store) Matches() storage.MatchStore {
	return &matches{db: s.db, table: s.tables.Matches, sess: s.direct}
}

func (s *Store) Openings() storage.OpeningMessageStore {
	return &openings{db: s.db, table: s.tables.Openings, sess: s.direct}
}

func (s *Store) Profiles() storage.ProfileStore {
	return &profiles{db: s.db, table: s.tables.Profiles}
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	sess := &txSession{staged: map[string]int{}}
	view := &txView{store: s, sess: sess}
	if err := fn(ctx, view); err != nil {
		return err
	}
	if len(sess.ops) > maxTransactItems {
		return fmt.Errorf("transaction stages %d writes, limit is %d", len(sess.ops), maxTransactItems)
	}
	items := make([]types.TransactWriteItem, 0, len(sess.ops))
	condErrs := make([]error, 0, len(sess.ops))
	for _, op := range sess.ops {
		put := &types.Put{TableName: aws.String(op.table), Item: op.item}
		if op.cond != "" {
			put.ConditionExpression = aws.String(op.cond)
		}
		items = append(items, types.TransactWriteItem{Put: put})
		condErrs = append(condErrs, op.condErr)
	}
	if err := s.db.TransactWrite(ctx, items, condErrs); err != nil {
		return err
	}
	s.log.Debug("transaction committed", "writes", len(items))
	return nil
}

type txView struct {
	store *Store
	sess  *txSession
}

func (t *txView) Signals() storage.SignalStore {
	return &signals{db: t.store.db, table: t.store.tables.Signals, sess: t.sess}
}

func (t *txView) Matches() storage.MatchStore {
	return &matches{db: t.store.db, table: t.store.tables.Matches, sess: t.sess}
}

func (t *txView) Openings() storage.OpeningMessageStore {
	return &openings{db: t.store.db, table: t.store.tables.Openings, sess: t.sess}
}

// writeOp is one full-item put. cond guards it; condErr is returned when the guard fails.
type writeOp struct {
	table   string
	key     string
	item    map[string]types.AttributeValue
	cond    string
	condErr error
}

type session interface {
	write(ctx context.Context, op writeOp) error
	// lookup returns a staged item by table and key.
	lookup(table, key string) (map[string]types.AttributeValue, bool)
	// find returns the first staged item of table accepted by keep.
	find(table string, keep func(map[string]types.AttributeValue) bool) (map[string]types.AttributeValue, bool)
}

type directSession struct{ db *Client }

func (d *directSession) write(ctx context.Context, op writeOp) error {
	return d.db.PutItem(ctx, op.table, op.item, op.cond, op.condErr)
}

func (d *directSession) lookup(string, string) (map[string]types.AttributeValue, bool) {
	return nil, false
}

func (d *directSession) find(string, func(map[string]types.AttributeValue) bool) (map[string]types.AttributeValue, bool) {
	return nil, false
}

type txSession struct {
	ops    []writeOp
	staged map[string]int
}

// write stages op. A second write to the same item replaces the staged body and keeps the
// first write's condition, since a transaction may touch each item only once.
func (t *txSession) write(_ context.Context, op writeOp) error {
	id := op.table + "|" + op.key
	if i, ok := t.staged[id]; ok {
		t.ops[i].item = op.item
		return nil
	}
	t.staged[id] = len(t.ops)
	t.ops = append(t.ops, op)
	return nil
}

func (t *txSession) lookup(table, key string) (map[string]types.AttributeValue, bool) {
	i, ok := t.staged[table+"|"+key]
	if !ok {
		return nil, false
	}
	return t.ops[i].item, true
}

func (t *txSession) find(table string, keep func(map[string]types.AttributeValue) bool) (map[string]types.AttributeValue, bool) {
	for _, op := range t.ops {
		if op.table == table && keep(op.item) {
			return op.item, true
		}
	}
	return nil, false
}

func attrS(v string) types.AttributeValue { return &types.AttributeValueMemberS{Value: v} }

func attrN(v int64) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(v, 10)}
}

func attrB(v bool) types.AttributeValue { return &types.AttributeValueMemberBOOL{Value: v} }

func attrF(v float64) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: strconv.FormatFloat(v, 'f', -1, 64)}
}
