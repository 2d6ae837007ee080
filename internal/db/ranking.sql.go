package db

import (
	"context"
	"time"
)

const upsertMember = `
INSERT INTO sorted_sets (set_key, member, score, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (set_key, member) DO UPDATE SET
    score = excluded.score,
    updated_at = excluded.updated_at
`

type UpsertMemberParams struct {
	SetKey    string
	Member    string
	Score     float64
	UpdatedAt time.Time
}

func (q *Queries) UpsertMember(ctx context.Context, arg UpsertMemberParams) error {
	_, err := q.db.ExecContext(ctx, upsertMember, arg.SetKey, arg.Member, arg.Score, arg.UpdatedAt)
	return err
}

const getMemberScore = `
SELECT score FROM sorted_sets WHERE set_key = ? AND member = ?
`

func (q *Queries) GetMemberScore(ctx context.Context, setKey, member string) (float64, error) {
	row := q.db.QueryRowContext(ctx, getMemberScore, setKey, member)
	var score float64
	err := row.Scan(&score)
	return score, err
}

// Descending order matches a reverse range: score first, then member, both descending.
const listMembersDesc = `
SELECT member FROM sorted_sets
WHERE set_key = ?
ORDER BY score DESC, member DESC
LIMIT ? OFFSET ?
`

type ListMembersParams struct {
	SetKey string
	Limit  int64
	Offset int64
}

func (q *Queries) ListMembersDesc(ctx context.Context, arg ListMembersParams) ([]string, error) {
	return q.listMembers(ctx, listMembersDesc, arg)
}

const listMembersAsc = `
SELECT member FROM sorted_sets
WHERE set_key = ?
ORDER BY score ASC, member ASC
LIMIT ? OFFSET ?
`

func (q *Queries) ListMembersAsc(ctx context.Context, arg ListMembersParams) ([]string, error) {
	return q.listMembers(ctx, listMembersAsc, arg)
}

func (q *Queries) listMembers(ctx context.Context, query string, arg ListMembersParams) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, query, arg.SetKey, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var member string
		if err := rows.Scan(&member); err != nil {
			return nil, err
		}
		items = append(items, member)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countMembersAbove = `
SELECT COUNT(*) FROM sorted_sets WHERE set_key = ? AND score > ?
`

func (q *Queries) CountMembersAbove(ctx context.Context, setKey string, score float64) (int64, error) {
	row := q.db.QueryRowContext(ctx, countMembersAbove, setKey, score)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const countMembers = `
SELECT COUNT(*) FROM sorted_sets WHERE set_key = ?
`

func (q *Queries) CountMembers(ctx context.Context, setKey string) (int64, error) {
	row := q.db.QueryRowContext(ctx, countMembers, setKey)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const deleteMember = `
DELETE FROM sorted_sets WHERE set_key = ? AND member = ?
`

func (q *Queries) DeleteMember(ctx context.Context, setKey, member string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteMember, setKey, member)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const upsertField = `
INSERT INTO hashes (hash_key, field, value, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (hash_key, field) DO UPDATE SET
    value = excluded.value,
    updated_at = excluded.updated_at
`

type UpsertFieldParams struct {
	HashKey   string
	Field     string
	Value     string
	UpdatedAt time.Time
}

func (q *Queries) UpsertField(ctx context.Context, arg UpsertFieldParams) error {
	_, err := q.db.ExecContext(ctx, upsertField, arg.HashKey, arg.Field, arg.Value, arg.UpdatedAt)
	return err
}

const getField = `
SELECT value FROM hashes WHERE hash_key = ? AND field = ?
`

func (q *Queries) GetField(ctx context.Context, hashKey, field string) (string, error) {
	row := q.db.QueryRowContext(ctx, getField, hashKey, field)
	var value string
	err := row.Scan(&value)
	return value, err
}

const deleteField = `
DELETE FROM hashes WHERE hash_key = ? AND field = ?
`

func (q *Queries) DeleteField(ctx context.Context, hashKey, field string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteField, hashKey, field)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listFields = `
SELECT field, value FROM hashes WHERE hash_key = ? ORDER BY field
`

type ListFieldsRow struct {
	Field string
	Value string
}

func (q *Queries) ListFields(ctx context.Context, hashKey string) ([]ListFieldsRow, error) {
	rows, err := q.db.QueryContext(ctx, listFields, hashKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListFieldsRow
	for rows.Next() {
		var i ListFieldsRow
		if err := rows.Scan(&i.Field, &i.Value); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
