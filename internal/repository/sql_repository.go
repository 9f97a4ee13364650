package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jonesy-ops/ash/internal/model"
	"github.com/jonesy-ops/ash/internal/repository/migrations"
)

// placeholderFn renders the Nth (1-indexed) bind parameter for a dialect.
type placeholderFn func(n int) string

func sqlitePlaceholder(int) string     { return "?" }
func postgresPlaceholder(n int) string { return "$" + strconv.Itoa(n) }

// sqlRepository is the shared database/sql implementation backing both the
// Postgres and SQLite constructors; dialect differences are isolated to
// placeholder rendering.
type sqlRepository struct {
	db *sql.DB
	ph placeholderFn
}

func newSQLRepository(db *sql.DB, ph placeholderFn) (*sqlRepository, error) {
	r := &sqlRepository{db: db, ph: ph}
	if err := r.migrate(context.Background()); err != nil {
		return nil, fmt.Errorf("repository: migrate: %w", err)
	}
	return r, nil
}

func (r *sqlRepository) migrate(ctx context.Context) error {
	var applied int
	row := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_meta")
	// schema_meta may not exist yet; ignore the error and treat as zero.
	_ = row.Scan(&applied)

	for i, name := range migrations.Ordered {
		version := i + 1
		if version <= applied {
			continue
		}
		contents, err := migrations.Files.ReadFile(name)
		if err != nil {
			return err
		}
		if _, err := r.db.ExecContext(ctx, string(contents)); err != nil {
			return fmt.Errorf("applying %s: %w", name, err)
		}
		if _, err := r.db.ExecContext(ctx, "DELETE FROM schema_meta"); err != nil {
			return err
		}
		if _, err := r.db.ExecContext(ctx, fmt.Sprintf("INSERT INTO schema_meta (version) VALUES (%s)", r.ph(1)), version); err != nil {
			return err
		}
	}
	return nil
}

func (r *sqlRepository) Close() error { return r.db.Close() }

func (r *sqlRepository) q(query string) string {
	// query is written with %s verbs in placeholder position order;
	// callers pass the already-substituted string, so this is a no-op
	// hook kept for readability at call sites.
	return query
}

func (r *sqlRepository) args(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = r.ph(i + 1)
	}
	return out
}

// ---- Strikes ----

func (r *sqlRepository) GetStrikes(ctx context.Context, userID string) (int, error) {
	var count int
	a := r.args(1)
	err := r.db.QueryRowContext(ctx, fmt.Sprintf("SELECT count FROM strikes WHERE user_id = %s", a[0]), userID).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return count, err
}

func (r *sqlRepository) IncrementStrike(ctx context.Context, userID string) (int, error) {
	if !model.CanStrike(userID) {
		return 0, fmt.Errorf("repository: %s cannot accrue strikes", userID)
	}
	current, err := r.GetStrikes(ctx, userID)
	if err != nil {
		return 0, err
	}
	next := current + 1
	a := r.args(2)
	upsert := fmt.Sprintf(`INSERT INTO strikes (user_id, count) VALUES (%s, %s)
		ON CONFLICT(user_id) DO UPDATE SET count = excluded.count`, a[0], a[1])
	if _, err := r.db.ExecContext(ctx, upsert, userID, next); err != nil {
		return 0, err
	}
	return next, nil
}

func (r *sqlRepository) ResetStrikes(ctx context.Context, userID string) error {
	a := r.args(2)
	upsert := fmt.Sprintf(`INSERT INTO strikes (user_id, count) VALUES (%s, 0)
		ON CONFLICT(user_id) DO UPDATE SET count = 0`, a[0])
	_, err := r.db.ExecContext(ctx, upsert, userID, 0)
	return err
}

func (r *sqlRepository) AllStrikes(ctx context.Context) ([]model.StrikeRecord, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT user_id, count FROM strikes WHERE count > 0 ORDER BY count DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.StrikeRecord
	for rows.Next() {
		var s model.StrikeRecord
		if err := rows.Scan(&s.UserID, &s.Count); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ---- Recommendations ----

func (r *sqlRepository) AddRecommendation(ctx context.Context, rec model.GameRecommendation) error {
	a := r.args(4)
	q := fmt.Sprintf("INSERT INTO game_recommendations (id, name, reason, added_by, created_at) VALUES (%s, %s, %s, %s, %s)",
		a[0], a[1], a[2], a[3], r.ph(5))
	_, err := r.db.ExecContext(ctx, q, rec.ID, rec.Name, rec.Reason, rec.AddedBy, time.Now())
	return err
}

func (r *sqlRepository) ListRecommendations(ctx context.Context) ([]model.GameRecommendation, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, reason, added_by FROM game_recommendations ORDER BY created_at ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.GameRecommendation
	for rows.Next() {
		var rec model.GameRecommendation
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Reason, &rec.AddedBy); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *sqlRepository) RemoveRecommendation(ctx context.Context, idOrIndex string) (bool, error) {
	a := r.args(1)
	res, err := r.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM game_recommendations WHERE id = %s", a[0]), idOrIndex)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *sqlRepository) FindRecommendationByName(ctx context.Context, name string) (*model.GameRecommendation, error) {
	a := r.args(1)
	var rec model.GameRecommendation
	err := r.db.QueryRowContext(ctx, fmt.Sprintf("SELECT id, name, reason, added_by FROM game_recommendations WHERE lower(name) = lower(%s)", a[0]), name).
		Scan(&rec.ID, &rec.Name, &rec.Reason, &rec.AddedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return &rec, err
}

// ---- Catalog ----

func gameColumns() string {
	return `id, canonical_name, alternative_names, series, genre, release_year, completion_status,
		total_episodes, total_playtime_minutes, external_id, confidence, last_validated_at,
		playlist_url, stream_urls, first_played_at`
}

func scanGame(row interface{ Scan(...any) error }) (*model.Game, error) {
	var g model.Game
	var altNamesJSON, streamURLsJSON string
	var externalID sql.NullInt64
	var lastValidated, firstPlayed sql.NullTime
	err := row.Scan(&g.ID, &g.CanonicalName, &altNamesJSON, &g.Series, &g.Genre, &g.ReleaseYear,
		&g.CompletionStatus, &g.TotalEpisodes, &g.TotalPlaytimeMins, &externalID, &g.Confidence,
		&lastValidated, &g.PlaylistURL, &streamURLsJSON, &firstPlayed)
	if err != nil {
		return nil, err
	}
	_ = json.Unmarshal([]byte(altNamesJSON), &g.AlternativeNames)
	_ = json.Unmarshal([]byte(streamURLsJSON), &g.StreamURLs)
	if externalID.Valid {
		g.ExternalID = &externalID.Int64
	}
	if lastValidated.Valid {
		g.LastValidatedAt = lastValidated.Time
	}
	if firstPlayed.Valid {
		g.FirstPlayedAt = firstPlayed.Time
	}
	return &g, nil
}

func (r *sqlRepository) UpsertGame(ctx context.Context, g *model.Game) error {
	if err := g.Valid(); err != nil {
		return fmt.Errorf("repository: %w", err)
	}
	altJSON, _ := json.Marshal(g.AlternativeNames)
	streamJSON, _ := json.Marshal(g.StreamURLs)
	var externalID any
	if g.ExternalID != nil {
		externalID = *g.ExternalID
	}
	a := r.args(15)
	q := fmt.Sprintf(`INSERT INTO played_games (%s) VALUES (%s)
		ON CONFLICT(id) DO UPDATE SET
			canonical_name = excluded.canonical_name,
			alternative_names = excluded.alternative_names,
			series = excluded.series,
			genre = excluded.genre,
			release_year = excluded.release_year,
			completion_status = excluded.completion_status,
			total_episodes = excluded.total_episodes,
			total_playtime_minutes = excluded.total_playtime_minutes,
			external_id = excluded.external_id,
			confidence = excluded.confidence,
			last_validated_at = excluded.last_validated_at,
			playlist_url = excluded.playlist_url,
			stream_urls = excluded.stream_urls,
			first_played_at = excluded.first_played_at`,
		gameColumns(), strings.Join(a, ", "))
	_, err := r.db.ExecContext(ctx, q,
		g.ID, g.CanonicalName, string(altJSON), g.Series, g.Genre, g.ReleaseYear, g.CompletionStatus,
		g.TotalEpisodes, g.TotalPlaytimeMins, externalID, g.Confidence, g.LastValidatedAt,
		g.PlaylistURL, string(streamJSON), g.FirstPlayedAt)
	return err
}

func (r *sqlRepository) GetGame(ctx context.Context, id string) (*model.Game, error) {
	a := r.args(1)
	row := r.db.QueryRowContext(ctx, fmt.Sprintf("SELECT %s FROM played_games WHERE id = %s", gameColumns(), a[0]), id)
	g, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return g, err
}

func (r *sqlRepository) FindGameByExternalID(ctx context.Context, externalID int64) (*model.Game, error) {
	a := r.args(1)
	row := r.db.QueryRowContext(ctx, fmt.Sprintf("SELECT %s FROM played_games WHERE external_id = %s", gameColumns(), a[0]), externalID)
	g, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return g, err
}

func (r *sqlRepository) FindGameByName(ctx context.Context, name string) (*model.Game, error) {
	a := r.args(1)
	row := r.db.QueryRowContext(ctx, fmt.Sprintf("SELECT %s FROM played_games WHERE lower(canonical_name) = lower(%s)", gameColumns(), a[0]), name)
	g, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return g, err
}

func (r *sqlRepository) FindGameByAlternativeName(ctx context.Context, name string) (*model.Game, error) {
	games, err := r.ListGames(ctx)
	if err != nil {
		return nil, err
	}
	lower := strings.ToLower(name)
	for _, g := range games {
		for _, alt := range g.AlternativeNames {
			if strings.ToLower(alt) == lower {
				return g, nil
			}
		}
	}
	return nil, nil
}

func (r *sqlRepository) ListGames(ctx context.Context) ([]*model.Game, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf("SELECT %s FROM played_games", gameColumns()))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *sqlRepository) ListGamesInProgress(ctx context.Context) ([]*model.Game, error) {
	a := r.args(1)
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf("SELECT %s FROM played_games WHERE completion_status = %s", gameColumns(), a[0]), model.CompletionInProgress)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *sqlRepository) RemoveGame(ctx context.Context, idOrName string) (bool, error) {
	a := r.args(2)
	q := fmt.Sprintf("DELETE FROM played_games WHERE id = %s OR lower(canonical_name) = lower(%s)", a[0], a[1])
	res, err := r.db.ExecContext(ctx, q, idOrName, idOrName)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ---- Reminders ----

func reminderColumns() string {
	return `id, user_id, text, scheduled_at, delivery_kind, channel_id, status,
		auto_action_kind, auto_action_target, auto_action_payload_url, auto_action_originator,
		delivered_at, cancelled_at, failed_at, last_error, auto_action_executed_at`
}

func scanReminder(row interface{ Scan(...any) error }) (*model.Reminder, error) {
	var rem model.Reminder
	var autoKind, autoTarget, autoPayload, autoOriginator string
	var deliveredAt, cancelledAt, failedAt, autoExecutedAt sql.NullTime
	err := row.Scan(&rem.ID, &rem.UserID, &rem.Text, &rem.ScheduledAt, &rem.DeliveryKind, &rem.ChannelID,
		&rem.Status, &autoKind, &autoTarget, &autoPayload, &autoOriginator,
		&deliveredAt, &cancelledAt, &failedAt, &rem.LastError, &autoExecutedAt)
	if err != nil {
		return nil, err
	}
	if autoKind != "" {
		rem.AutoAction = &model.AutoAction{
			Kind:         model.AutoActionKind(autoKind),
			TargetUserID: autoTarget,
			PayloadURL:   autoPayload,
			OriginatorID: autoOriginator,
		}
	}
	if deliveredAt.Valid {
		t := deliveredAt.Time
		rem.DeliveredAt = &t
	}
	if cancelledAt.Valid {
		t := cancelledAt.Time
		rem.CancelledAt = &t
	}
	if failedAt.Valid {
		t := failedAt.Time
		rem.FailedAt = &t
	}
	if autoExecutedAt.Valid {
		t := autoExecutedAt.Time
		rem.AutoActionExecutedAt = &t
	}
	return &rem, nil
}

func (r *sqlRepository) CreateReminder(ctx context.Context, rem *model.Reminder) error {
	var autoKind, autoTarget, autoPayload, autoOriginator string
	if rem.AutoAction != nil {
		autoKind = string(rem.AutoAction.Kind)
		autoTarget = rem.AutoAction.TargetUserID
		autoPayload = rem.AutoAction.PayloadURL
		autoOriginator = rem.AutoAction.OriginatorID
	}
	a := r.args(16)
	q := fmt.Sprintf("INSERT INTO reminders (%s) VALUES (%s)", reminderColumns(), strings.Join(a, ", "))
	_, err := r.db.ExecContext(ctx, q, rem.ID, rem.UserID, rem.Text, rem.ScheduledAt, rem.DeliveryKind,
		rem.ChannelID, rem.Status, autoKind, autoTarget, autoPayload, autoOriginator,
		rem.DeliveredAt, rem.CancelledAt, rem.FailedAt, rem.LastError, rem.AutoActionExecutedAt)
	return err
}

// ListDeliveredRemindersWithPendingAutoAction returns delivered reminders
// carrying an auto-action descriptor whose grace-period escalation hasn't
// fired yet (spec.md §4.9).
func (r *sqlRepository) ListDeliveredRemindersWithPendingAutoAction(ctx context.Context) ([]*model.Reminder, error) {
	a := r.args(1)
	q := fmt.Sprintf(`SELECT %s FROM reminders WHERE status = %s
		AND auto_action_kind != '' AND auto_action_executed_at IS NULL
		ORDER BY scheduled_at ASC, id ASC`, reminderColumns(), a[0])
	rows, err := r.db.QueryContext(ctx, q, model.ReminderDelivered)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Reminder
	for rows.Next() {
		rem, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rem)
	}
	return out, rows.Err()
}

// MarkReminderAutoActionExecuted records that id's grace-period escalation
// has fired, so later sweeps don't repeat it.
func (r *sqlRepository) MarkReminderAutoActionExecuted(ctx context.Context, id string, at time.Time) error {
	a := r.args(2)
	q := fmt.Sprintf("UPDATE reminders SET auto_action_executed_at = %s WHERE id = %s", a[0], a[1])
	_, err := r.db.ExecContext(ctx, q, at, id)
	return err
}

func (r *sqlRepository) GetReminder(ctx context.Context, id string) (*model.Reminder, error) {
	a := r.args(1)
	row := r.db.QueryRowContext(ctx, fmt.Sprintf("SELECT %s FROM reminders WHERE id = %s", reminderColumns(), a[0]), id)
	rem, err := scanReminder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rem, err
}

func (r *sqlRepository) ListPendingReminders(ctx context.Context, userID string) ([]*model.Reminder, error) {
	var rows *sql.Rows
	var err error
	if userID == "" {
		rows, err = r.db.QueryContext(ctx, fmt.Sprintf("SELECT %s FROM reminders WHERE status = %s ORDER BY scheduled_at ASC", reminderColumns(), r.ph(1)), model.ReminderPending)
	} else {
		a := r.args(2)
		rows, err = r.db.QueryContext(ctx, fmt.Sprintf("SELECT %s FROM reminders WHERE status = %s AND user_id = %s ORDER BY scheduled_at ASC", reminderColumns(), a[0], a[1]), model.ReminderPending, userID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Reminder
	for rows.Next() {
		rem, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rem)
	}
	return out, rows.Err()
}

func (r *sqlRepository) DueReminders(ctx context.Context, asOf time.Time) ([]*model.Reminder, error) {
	a := r.args(2)
	q := fmt.Sprintf("SELECT %s FROM reminders WHERE status = %s AND scheduled_at <= %s ORDER BY scheduled_at ASC, id ASC", reminderColumns(), a[0], a[1])
	rows, err := r.db.QueryContext(ctx, q, model.ReminderPending, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Reminder
	for rows.Next() {
		rem, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rem)
	}
	return out, rows.Err()
}

func (r *sqlRepository) CompareAndSetReminderStatus(ctx context.Context, id string, from, to model.ReminderStatus, at time.Time, failErr string) (bool, error) {
	var col string
	switch to {
	case model.ReminderDelivered:
		col = "delivered_at"
	case model.ReminderCancelled:
		col = "cancelled_at"
	case model.ReminderFailed:
		col = "failed_at"
	}
	a := r.args(4)
	q := fmt.Sprintf("UPDATE reminders SET status = %s, %s = %s, last_error = %s WHERE id = %s AND status = %s",
		a[0], col, a[1], a[2], a[3], r.ph(5))
	res, err := r.db.ExecContext(ctx, q, to, at, failErr, id, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *sqlRepository) CancelReminder(ctx context.Context, id string) (bool, error) {
	return r.CompareAndSetReminderStatus(ctx, id, model.ReminderPending, model.ReminderCancelled, time.Now(), "")
}

// ---- Trivia ----

func (r *sqlRepository) CreateTriviaQuestion(ctx context.Context, q *model.TriviaQuestion) error {
	choicesJSON, _ := json.Marshal(q.Choices)
	a := r.args(8)
	stmt := fmt.Sprintf("INSERT INTO trivia_questions (id, text, type, correct_answer, choices, submitted_by, status, category) VALUES (%s)", strings.Join(a, ", "))
	_, err := r.db.ExecContext(ctx, stmt, q.ID, q.Text, q.Type, q.CorrectAnswer, string(choicesJSON), q.SubmittedBy, q.ApprovalStatus, q.Category)
	return err
}

func (r *sqlRepository) UpdateTriviaQuestionApproval(ctx context.Context, id string, status model.TriviaApprovalStatus) error {
	a := r.args(2)
	_, err := r.db.ExecContext(ctx, fmt.Sprintf("UPDATE trivia_questions SET status = %s WHERE id = %s", a[0], a[1]), status, id)
	return err
}

func (r *sqlRepository) GetTriviaQuestion(ctx context.Context, id string) (*model.TriviaQuestion, error) {
	a := r.args(1)
	var q model.TriviaQuestion
	var choicesJSON string
	err := r.db.QueryRowContext(ctx, fmt.Sprintf("SELECT id, text, type, correct_answer, choices, submitted_by, status, category FROM trivia_questions WHERE id = %s", a[0]), id).
		Scan(&q.ID, &q.Text, &q.Type, &q.CorrectAnswer, &choicesJSON, &q.SubmittedBy, &q.ApprovalStatus, &q.Category)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	_ = json.Unmarshal([]byte(choicesJSON), &q.Choices)
	return &q, nil
}

func (r *sqlRepository) ApprovedTriviaQuestions(ctx context.Context) ([]*model.TriviaQuestion, error) {
	a := r.args(1)
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf("SELECT id, text, type, correct_answer, choices, submitted_by, status, category FROM trivia_questions WHERE status = %s", a[0]), model.TriviaApproved)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.TriviaQuestion
	for rows.Next() {
		var q model.TriviaQuestion
		var choicesJSON string
		if err := rows.Scan(&q.ID, &q.Text, &q.Type, &q.CorrectAnswer, &choicesJSON, &q.SubmittedBy, &q.ApprovalStatus, &q.Category); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(choicesJSON), &q.Choices)
		out = append(out, &q)
	}
	return out, rows.Err()
}

func (r *sqlRepository) NextUnusedApprovedTriviaQuestion(ctx context.Context) (*model.TriviaQuestion, error) {
	a := r.args(1)
	q := fmt.Sprintf(`SELECT tq.id, tq.text, tq.type, tq.correct_answer, tq.choices, tq.submitted_by, tq.status, tq.category
		FROM trivia_questions tq
		LEFT JOIN trivia_sessions ts ON ts.question_id = tq.id
		WHERE tq.status = %s AND ts.id IS NULL
		ORDER BY tq.id ASC LIMIT 1`, a[0])
	var question model.TriviaQuestion
	var choicesJSON string
	err := r.db.QueryRowContext(ctx, q, model.TriviaApproved).
		Scan(&question.ID, &question.Text, &question.Type, &question.CorrectAnswer, &choicesJSON, &question.SubmittedBy, &question.ApprovalStatus, &question.Category)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	_ = json.Unmarshal([]byte(choicesJSON), &question.Choices)
	return &question, nil
}

func (r *sqlRepository) CreateTriviaSession(ctx context.Context, s *model.TriviaSession) error {
	a := r.args(7)
	stmt := fmt.Sprintf("INSERT INTO trivia_sessions (id, question_id, state, channel_id, question_message_id, started_at, winner_user_id) VALUES (%s)", strings.Join(a, ", "))
	_, err := r.db.ExecContext(ctx, stmt, s.ID, s.QuestionID, s.State, s.ChannelID, s.QuestionMessageID, s.StartedAt, s.WinnerUserID)
	return err
}

func scanSession(row interface{ Scan(...any) error }) (*model.TriviaSession, error) {
	var s model.TriviaSession
	var endedAt sql.NullTime
	err := row.Scan(&s.ID, &s.QuestionID, &s.State, &s.ChannelID, &s.QuestionMessageID, &s.StartedAt, &endedAt, &s.WinnerUserID)
	if err != nil {
		return nil, err
	}
	if endedAt.Valid {
		s.EndedAt = &endedAt.Time
	}
	return &s, nil
}

func sessionColumns() string {
	return "id, question_id, state, channel_id, question_message_id, started_at, ended_at, winner_user_id"
}

func (r *sqlRepository) GetTriviaSession(ctx context.Context, id string) (*model.TriviaSession, error) {
	a := r.args(1)
	row := r.db.QueryRowContext(ctx, fmt.Sprintf("SELECT %s FROM trivia_sessions WHERE id = %s", sessionColumns(), a[0]), id)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

func (r *sqlRepository) ActiveTriviaSessionForMessage(ctx context.Context, questionMessageID string) (*model.TriviaSession, error) {
	a := r.args(2)
	q := fmt.Sprintf("SELECT %s FROM trivia_sessions WHERE question_message_id = %s AND state = %s", sessionColumns(), a[0], a[1])
	row := r.db.QueryRowContext(ctx, q, questionMessageID, model.TriviaSessionActive)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

func (r *sqlRepository) ActiveTriviaSessions(ctx context.Context) ([]*model.TriviaSession, error) {
	a := r.args(1)
	q := fmt.Sprintf("SELECT %s FROM trivia_sessions WHERE state = %s ORDER BY started_at ASC", sessionColumns(), a[0])
	rows, err := r.db.QueryContext(ctx, q, model.TriviaSessionActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.TriviaSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *sqlRepository) CompleteTriviaSession(ctx context.Context, id string, winnerUserID string, endedAt time.Time) error {
	a := r.args(4)
	q := fmt.Sprintf("UPDATE trivia_sessions SET state = %s, winner_user_id = %s, ended_at = %s WHERE id = %s", a[0], a[1], a[2], a[3])
	_, err := r.db.ExecContext(ctx, q, model.TriviaSessionCompleted, winnerUserID, endedAt, id)
	return err
}

func (r *sqlRepository) RecordTriviaAnswer(ctx context.Context, ans *model.TriviaAnswer) error {
	a := r.args(7)
	stmt := fmt.Sprintf("INSERT INTO trivia_answers (session_id, user_id, text, score, match_kind, ordinal, created_at) VALUES (%s)", strings.Join(a, ", "))
	_, err := r.db.ExecContext(ctx, stmt, ans.SessionID, ans.UserID, ans.Text, ans.Score, ans.MatchKind, ans.Ordinal, ans.CreatedAt)
	return err
}

func (r *sqlRepository) ListTriviaAnswers(ctx context.Context, sessionID string) ([]*model.TriviaAnswer, error) {
	a := r.args(1)
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf("SELECT session_id, user_id, text, score, match_kind, ordinal, created_at FROM trivia_answers WHERE session_id = %s ORDER BY ordinal ASC", a[0]), sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.TriviaAnswer
	for rows.Next() {
		var ans model.TriviaAnswer
		if err := rows.Scan(&ans.SessionID, &ans.UserID, &ans.Text, &ans.Score, &ans.MatchKind, &ans.Ordinal, &ans.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &ans)
	}
	return out, rows.Err()
}

// ---- Conversation state ----

func (r *sqlRepository) GetConversationState(ctx context.Context, userID string, flow model.FlowName) (*model.ConversationState, error) {
	a := r.args(2)
	q := fmt.Sprintf("SELECT user_id, flow, step, data, last_activity FROM conversation_states WHERE user_id = %s AND flow = %s", a[0], a[1])
	var s model.ConversationState
	var dataJSON string
	err := r.db.QueryRowContext(ctx, q, userID, flow).Scan(&s.UserID, &s.Flow, &s.Step, &dataJSON, &s.LastActivity)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	_ = json.Unmarshal([]byte(dataJSON), &s.Data)
	return &s, nil
}

func (r *sqlRepository) SaveConversationState(ctx context.Context, s *model.ConversationState) error {
	dataJSON, _ := json.Marshal(s.Data)
	a := r.args(5)
	q := fmt.Sprintf(`INSERT INTO conversation_states (user_id, flow, step, data, last_activity) VALUES (%s)
		ON CONFLICT(user_id, flow) DO UPDATE SET step = excluded.step, data = excluded.data, last_activity = excluded.last_activity`,
		strings.Join(a, ", "))
	_, err := r.db.ExecContext(ctx, q, s.UserID, s.Flow, s.Step, string(dataJSON), s.LastActivity)
	return err
}

func (r *sqlRepository) DeleteConversationState(ctx context.Context, userID string, flow model.FlowName) error {
	a := r.args(2)
	_, err := r.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM conversation_states WHERE user_id = %s AND flow = %s", a[0], a[1]), userID, flow)
	return err
}

func (r *sqlRepository) ListConversationStates(ctx context.Context) ([]*model.ConversationState, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT user_id, flow, step, data, last_activity FROM conversation_states")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.ConversationState
	for rows.Next() {
		var s model.ConversationState
		var dataJSON string
		if err := rows.Scan(&s.UserID, &s.Flow, &s.Step, &dataJSON, &s.LastActivity); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(dataJSON), &s.Data)
		out = append(out, &s)
	}
	return out, rows.Err()
}

// ---- Config ----

func (r *sqlRepository) GetConfig(ctx context.Context, key string) (string, bool, error) {
	a := r.args(1)
	var value string
	err := r.db.QueryRowContext(ctx, fmt.Sprintf("SELECT value FROM config WHERE key = %s", a[0]), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	return value, err == nil, err
}

func (r *sqlRepository) SetConfig(ctx context.Context, key, value string) error {
	a := r.args(2)
	q := fmt.Sprintf(`INSERT INTO config (key, value) VALUES (%s)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, strings.Join(a, ", "))
	_, err := r.db.ExecContext(ctx, q, key, value)
	return err
}
