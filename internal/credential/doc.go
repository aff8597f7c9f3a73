// Package credential stores the catalog credential and manages its
// lifecycle.
//
// # Stores
//
// A Store keeps one credential as a whole JSON object:
//
//	store, err := credential.OpenStore(ctx, credential.StoreConfig{
//	    Backend: "file",
//	    File:    "~/.config/qqmusic-web/credential.json",
//	})
//
// Backends are a local file (gocloud fileblob), a bbolt database, or any
// gocloud bucket URL such as mem:// or s3://.
//
// # Manager
//
// Manager holds the current credential in memory, loads it lazily, and
// renews it against the catalog:
//
//	cred := mgr.Get(ctx)
//	cred, err := mgr.Renew(ctx, cred)
//	switch {
//	case err == nil:
//	case errors.Is(err, credential.ErrRefreshedUnsaved):
//	    // usable, but the store still has the old value
//	default:
//	    // not usable
//	}
package credential
