package errors

// Postgres-specific helpers for mapping pgx errors onto the facade taxonomy

import (
	"context"
	stderrs "errors"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes and classes we care about
const (
	pgErrUndefinedTable  = "42P01"
	pgErrUndefinedColumn = "42703"
	pgErrQueryCanceled   = "57014"

	pgClassConnectionException  = "08"
	pgClassOperatorIntervention = "57P"
)

// ExtractPgError returns (*pgconn.PgError, true) if the root cause is a PgError
func ExtractPgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if stderrs.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// IsSQLState reports whether the error is a Postgres error with the given SQLSTATE code
func IsSQLState(err error, code string) bool {
	pgErr, ok := ExtractPgError(err)
	return ok && pgErr.Code == code
}

// IsUndefinedRelation reports a query against a missing table or view
func IsUndefinedRelation(err error) bool { return IsSQLState(err, pgErrUndefinedTable) }

// IsUndefinedColumn reports a query naming a column the relation lacks
func IsUndefinedColumn(err error) bool { return IsSQLState(err, pgErrUndefinedColumn) }

// DBErrorCode maps a Postgres error to an ErrorCode with an ok flag
// !ok means err wasn't a PgError; caller may fall back to IsTransportCause
func DBErrorCode(err error) (ErrorCode, bool) {
	pgErr, ok := ExtractPgError(err)
	if !ok {
		return ErrorCodeUnknown, false
	}

	switch {
	case strings.HasPrefix(pgErr.Code, pgClassConnectionException):
		return ErrorCodeUnavailable, true
	case strings.HasPrefix(pgErr.Code, pgClassOperatorIntervention):
		// admin shutdown, crash shutdown, cannot connect now
		return ErrorCodeUnavailable, true
	case pgErr.Code == pgErrQueryCanceled:
		// statement_timeout on the server side
		return ErrorCodeUnavailable, true
	}

	// everything else the server reported is a rejected query, diagnostic kept
	return ErrorCodeQuery, true
}

// IsTransportCause reports driver and network failures that never reached a server verdict
func IsTransportCause(err error) bool {
	if err == nil {
		return false
	}
	if stderrs.Is(err, context.DeadlineExceeded) || stderrs.Is(err, context.Canceled) {
		return true
	}
	if stderrs.Is(err, io.EOF) || stderrs.Is(err, io.ErrUnexpectedEOF) || stderrs.Is(err, net.ErrClosed) {
		return true
	}
	var connErr *pgconn.ConnectError
	if stderrs.As(err, &connErr) {
		return true
	}
	var netErr net.Error
	if stderrs.As(err, &netErr) {
		return true
	}
	if pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return true
	}

	// pgx reports use of a closed conn with plain text
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "conn closed") ||
		strings.Contains(s, "connection reset") ||
		strings.Contains(s, "broken pipe")
}

// Classify maps any error from the driver onto the taxonomy
// errors that are already ours keep their code
func Classify(err error) ErrorCode {
	if e, ok := As(err); ok {
		return e.code
	}
	if code, ok := DBErrorCode(err); ok {
		return code
	}
	if IsTransportCause(err) {
		return ErrorCodeUnavailable
	}
	return ErrorCodeUnknown
}

// FromPostgres wraps a driver error with its mapped ErrorCode and message
// If err is nil, returns nil. Errors that are already ours pass through unchanged
func FromPostgres(err error, msg string) error {
	if err == nil {
		return nil
	}
	if _, ok := As(err); ok {
		return err
	}
	return Wrap(err, Classify(err), msg)
}

// FromPostgresf is the formatted variant of FromPostgres
func FromPostgresf(err error, format string, a ...any) error {
	return FromPostgres(err, fmt.Sprintf(format, a...))
}

// AttachFieldFromPg tries to enrich an error with the column named by the PgError
// Returns the original error if no field can be inferred
func AttachFieldFromPg(err error) error {
	pgErr, ok := ExtractPgError(err)
	if !ok {
		return err
	}
	if col := strings.TrimSpace(pgErr.ColumnName); col != "" {
		return WithField(err, col)
	}
	return err
}
