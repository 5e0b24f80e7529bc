// Package authgate is an embeddable authentication security engine:
// failed-attempt tracking with temporary lockout, one-time arithmetic
// CAPTCHA challenges, short-lived sessions, and long-lived remember-me
// tokens, orchestrated behind a single Gateway that route handlers call.
//
// authgate owns no accounts. Callers supply a CredentialStore for lookup
// and secret verification; the gateway guarantees that an unknown account
// and a wrong secret are externally indistinguishable in both result and
// cost.
//
// Stores default to in-process mutex-guarded maps with lazy expiry.
// Builder.WithRedis switches every store to Redis with native TTLs for
// multi-process deployments behind one Redis instance.
//
// Minimal usage:
//
//	gw, err := authgate.New().
//		WithCredentialStore(store).
//		Build()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer gw.Close()
//
//	result, err := gw.Authenticate(ctx, authgate.AuthRequest{
//		Identifier: email,
//		Secret:     pass,
//		RememberMe: true,
//	})
package authgate
