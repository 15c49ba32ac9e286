package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/geo-stats/internal/domain/match"
	qb "github.com/riskibarqy/geo-stats/internal/platform/querybuilder"
	"github.com/riskibarqy/geo-stats/internal/usecase"
)

const matchTable = "duels_game"

// upsertPolicies decides, per table, what an insert does with an existing key.
// Match rows are immutable so a second write of the same match fails.
var upsertPolicies = map[string]qb.ConflictPolicy{
	"duels_game":  qb.FailOnConflict(),
	"duels_round": qb.FailOnConflict(),
	"guess":       qb.FailOnConflict(),
	"player": qb.UpdateOnConflict([]string{"id"},
		"name", "country_code", "avatar_pin", "level", "is_pro_user", "is_creator",
		"rating", "moving_rating", "no_move_rating", "nmpz_rating",
	),
	"comp_team": qb.UpdateOnConflict([]string{"team_id"}, "name", "rating"),
	"map":       qb.UpdateOnConflict([]string{"id"}, "name", "max_error_distance"),
	"location":  qb.IgnoreOnConflict("id"),
	"fun_team":  qb.IgnoreOnConflict("team_id"),
}

type statement struct {
	table string
	query string
	args  []any
}

type WriteSetRepository struct {
	db *sqlx.DB
}

func NewWriteSetRepository(db *sqlx.DB) *WriteSetRepository {
	return &WriteSetRepository{db: db}
}

func (r *WriteSetRepository) Exists(ctx context.Context, gameID string) (bool, error) {
	query, args, err := qb.Select("1").From(matchTable).
		Where(qb.Eq("id", strings.TrimSpace(gameID))).
		Limit(1).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build match exists query: %w", err)
	}

	var found int
	if err := r.db.GetContext(ctx, &found, query, args...); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("%w: check match game_id=%s: %w", usecase.ErrStorageFailure, gameID, err)
	}
	return true, nil
}

// Commit writes every row of set in one transaction, parents before children.
func (r *WriteSetRepository) Commit(ctx context.Context, set match.WriteSet) error {
	statements, err := buildWriteSetStatements(set)
	if err != nil {
		return fmt.Errorf("%w: %w", usecase.ErrStorageFailure, err)
	}
	if len(statements) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin tx commit write-set: %w", usecase.ErrStorageFailure, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt.query, stmt.args...); err != nil {
			return mapInsertError(stmt.table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return mapInsertError(matchTable, fmt.Errorf("commit write-set tx: %w", err))
	}
	return nil
}

func mapInsertError(table string, err error) error {
	if table == matchTable && isUniqueViolation(err) {
		return fmt.Errorf("%w: %v", match.ErrAlreadyExists, err)
	}
	return fmt.Errorf("%w: insert %s: %w", usecase.ErrStorageFailure, table, err)
}

// buildWriteSetStatements renders the inserts for set in dependency order,
// splitting each table so no statement exceeds the bind parameter limit.
func buildWriteSetStatements(set match.WriteSet) ([]statement, error) {
	var out []statement
	var err error
	if out, err = appendInserts(out, "map", mapModels(set.Maps)); err != nil {
		return nil, err
	}
	if out, err = appendInserts(out, "location", locationModels(set.Locations)); err != nil {
		return nil, err
	}
	if out, err = appendInserts(out, "player", playerModels(set.Players)); err != nil {
		return nil, err
	}
	if out, err = appendInserts(out, "comp_team", compTeamModels(set.CompetitiveTeams)); err != nil {
		return nil, err
	}
	if out, err = appendInserts(out, "fun_team", funTeamModels(set.CasualTeams)); err != nil {
		return nil, err
	}
	if out, err = appendInserts(out, matchTable, duelsGameModels(set.Matches)); err != nil {
		return nil, err
	}
	if out, err = appendInserts(out, "duels_round", duelsRoundModels(set.Rounds)); err != nil {
		return nil, err
	}
	if out, err = appendInserts(out, "guess", guessModels(set.Guesses)); err != nil {
		return nil, err
	}
	return out, nil
}

func appendInserts[T any](out []statement, table string, rows []T) ([]statement, error) {
	if len(rows) == 0 {
		return out, nil
	}
	policy, ok := upsertPolicies[table]
	if !ok {
		return nil, fmt.Errorf("no upsert policy for table %s", table)
	}
	cols, err := qb.ModelColumns(rows[0])
	if err != nil {
		return nil, fmt.Errorf("resolve %s columns: %w", table, err)
	}

	size := qb.RowsPerStatement(len(cols))
	for start := 0; start < len(rows); start += size {
		end := min(start+size, len(rows))
		query, args, err := qb.InsertModels(table, rows[start:end], policy)
		if err != nil {
			return nil, fmt.Errorf("build insert %s query: %w", table, err)
		}
		out = append(out, statement{table: table, query: query, args: args})
	}
	return out, nil
}
