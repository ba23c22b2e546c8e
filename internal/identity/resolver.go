package identity

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Resolver turns raw request credentials into a RequestIdentity. It owns no
// state of its own: every lookup goes to the injected directory, provider
// profile API and token codec, so concurrent requests share nothing in
// process and first-sight races are settled by the store's uniqueness
// constraints.
type Resolver struct {
	dir      Directory
	profiles ProfileAPI
	tokens   *TokenCodec
	logger   *zap.SugaredLogger
}

func NewResolver(dir Directory, profiles ProfileAPI, tokens *TokenCodec, logger *zap.SugaredLogger) *Resolver {
	return &Resolver{dir: dir, profiles: profiles, tokens: tokens, logger: logger}
}

// Resolve produces the caller's identity from the bearer token (if any) and
// the provider subject attached by the upstream session verification (empty
// when no verified session exists). It never returns an error: resolution
// degrades to the anonymous identity, and whether that is acceptable is the
// role gate's call.
//
// Priority order, short-circuiting:
//  1. valid self-issued bearer token whose subject resolves to a known user
//  2. verified external-provider session, provisioning a local row on first
//     sight (linking by email when a password-only account already exists)
//  3. anonymous
func (r *Resolver) Resolve(ctx context.Context, bearer, providerSubject string) RequestIdentity {
	if bearer != "" {
		if id, ok := r.resolveToken(ctx, bearer); ok {
			return id
		}
		// invalid or unknown token is treated as an absent credential
	}
	if providerSubject != "" {
		if id, ok := r.resolveProvider(ctx, providerSubject); ok {
			return id
		}
	}
	return Anonymous()
}

func (r *Resolver) resolveToken(ctx context.Context, bearer string) (RequestIdentity, bool) {
	claims, err := r.tokens.Verify(bearer)
	if err != nil {
		r.logger.Debugw("bearer token rejected", "err", err)
		return RequestIdentity{}, false
	}
	userID, _ := claims.UserID()
	acc, err := r.dir.FindByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrNoAccount) {
			r.logger.Warnw("token user lookup failed", "user_id", userID, "err", err)
		}
		return RequestIdentity{}, false
	}
	role := acc.Role
	return RequestIdentity{UserID: &acc.ID, Role: &role, Source: SourceToken}, true
}

func (r *Resolver) resolveProvider(ctx context.Context, subject string) (RequestIdentity, bool) {
	acc, err := r.dir.FindByExternalID(ctx, subject)
	switch {
	case err == nil:
		return identityOf(acc), true
	case !errors.Is(err, ErrNoAccount):
		r.logger.Warnw("external id lookup failed", "subject", subject, "err", err)
		return RequestIdentity{}, false
	}

	// First sight of this external identity: fetch the provider profile to
	// learn the primary email, then link or provision. A provider outage
	// degrades this request to anonymous rather than failing the pipeline.
	profile, err := r.profiles.FetchProfile(ctx, subject)
	if err != nil {
		r.logger.Warnw("provider profile fetch failed", "subject", subject, "err", err)
		return RequestIdentity{}, false
	}

	existing, err := r.dir.FindByEmail(ctx, profile.Email)
	switch {
	case err == nil:
		if existing.ExternalID != nil {
			if *existing.ExternalID == subject {
				return identityOf(existing), true
			}
			// the row belongs to a different external identity; an email
			// match alone never grants access to it
			r.logger.Warnw("email already linked to another identity", "user_id", existing.ID, "subject", subject)
			return RequestIdentity{}, false
		}
		if err := r.dir.AttachExternalID(ctx, existing.ID, subject); err != nil {
			if errors.Is(err, ErrNoAccount) {
				// lost a linking race: accept the row only if it ended up ours
				if acc, ferr := r.dir.FindByExternalID(ctx, subject); ferr == nil {
					return identityOf(acc), true
				}
			}
			r.logger.Warnw("account linking failed", "user_id", existing.ID, "err", err)
			return RequestIdentity{}, false
		}
		r.logger.Infow("linked external identity", "user_id", existing.ID, "subject", subject)
		return identityOf(existing), true
	case !errors.Is(err, ErrNoAccount):
		r.logger.Warnw("email lookup failed", "err", err)
		return RequestIdentity{}, false
	}

	created, err := r.dir.Create(ctx, NewAccount{
		ExternalID: subject,
		Email:      profile.Email,
		FirstName:  profile.FirstName,
		LastName:   profile.LastName,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateAccount) {
			// lost a first-sight race: the row now exists, re-fetch it
			return r.refetchAfterRace(ctx, subject, profile.Email)
		}
		r.logger.Warnw("account provisioning failed", "subject", subject, "err", err)
		return RequestIdentity{}, false
	}
	r.logger.Infow("provisioned account", "user_id", created.ID, "subject", subject)
	return identityOf(created), true
}

func (r *Resolver) refetchAfterRace(ctx context.Context, subject, email string) (RequestIdentity, bool) {
	if acc, err := r.dir.FindByExternalID(ctx, subject); err == nil {
		return identityOf(acc), true
	}
	acc, err := r.dir.FindByEmail(ctx, email)
	if err != nil {
		r.logger.Warnw("re-fetch after duplicate insert failed", "subject", subject, "err", err)
		return RequestIdentity{}, false
	}
	if acc.ExternalID != nil && *acc.ExternalID != subject {
		r.logger.Warnw("email already linked to another identity", "user_id", acc.ID, "subject", subject)
		return RequestIdentity{}, false
	}
	return identityOf(acc), true
}

func identityOf(acc *Account) RequestIdentity {
	role := acc.Role
	id := acc.ID
	return RequestIdentity{UserID: &id, Role: &role, Source: SourceProvider}
}
