package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/2beens/portfolio/internal/telemetry/tracing"
)

// Reason tells why a request was not authenticated. It is for logs and
// metrics only, clients always get the same answer.
type Reason string

const (
	ReasonMissingCredential          Reason = "missing_credential"
	ReasonInvalidCredential          Reason = "invalid_credential"
	ReasonExpiredCredential          Reason = "expired_credential"
	ReasonUnknownOrInactivePrincipal Reason = "unknown_or_inactive_principal"
)

// Outcome is the result of checking a request's session: either an
// authenticated admin or a rejection reason, never both.
type Outcome struct {
	admin  *Admin
	reason Reason
}

func Authenticated(admin *Admin) Outcome {
	return Outcome{admin: admin}
}

func Rejected(reason Reason) Outcome {
	return Outcome{reason: reason}
}

func (o Outcome) IsAuthenticated() bool {
	return o.admin != nil
}

func (o Outcome) Admin() (*Admin, bool) {
	return o.admin, o.admin != nil
}

func (o Outcome) Reason() Reason {
	return o.reason
}

//go:generate mockgen -source=$GOFILE -destination=authenticator_mocks_test.go -package=auth

type adminFinder interface {
	FindActiveAdminByID(ctx context.Context, id int64) (*Admin, error)
}

// Authenticator resolves the session cookie of a request to an active admin.
// It keeps no state between requests.
type Authenticator struct {
	codec  *TokenCodec
	admins adminFinder
	maxAge time.Duration
}

func NewAuthenticator(codec *TokenCodec, admins adminFinder, maxAge time.Duration) *Authenticator {
	return &Authenticator{
		codec:  codec,
		admins: admins,
		maxAge: maxAge,
	}
}

// Authenticate runs cookie -> token -> admin lookup. A non-nil error means the
// check itself could not be completed (store failure, cancelled request); the
// outcome is then never authenticated.
func (a *Authenticator) Authenticate(ctx context.Context, r *http.Request) (Outcome, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "auth.authenticate")
	defer span.End()

	outcome, err := a.authenticate(ctx, r)
	switch {
	case err != nil:
		span.SetStatus(codes.Error, "auth-check-failed")
		span.RecordError(err)
	case !outcome.IsAuthenticated():
		span.SetAttributes(attribute.String("auth.reason", string(outcome.reason)))
		span.SetStatus(codes.Error, "rejected")
	default:
		span.SetAttributes(attribute.Int64("auth.admin_id", outcome.admin.ID))
		span.SetStatus(codes.Ok, "authenticated")
	}

	return outcome, err
}

func (a *Authenticator) authenticate(ctx context.Context, r *http.Request) (Outcome, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return Rejected(ReasonMissingCredential), nil
	}

	adminID, err := a.codec.Decode(cookie.Value, a.maxAge)
	if errors.Is(err, ErrExpiredToken) {
		return Rejected(ReasonExpiredCredential), nil
	}
	if err != nil {
		log.Tracef("decode session token: %s", err)
		return Rejected(ReasonInvalidCredential), nil
	}

	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}

	admin, err := a.admins.FindActiveAdminByID(ctx, adminID)
	if errors.Is(err, ErrAdminNotFound) {
		return Rejected(ReasonUnknownOrInactivePrincipal), nil
	}
	if err != nil {
		return Outcome{}, fmt.Errorf("find admin %d: %w", adminID, err)
	}
	if admin == nil || !admin.IsActive {
		return Rejected(ReasonUnknownOrInactivePrincipal), nil
	}

	return Authenticated(admin), nil
}
