package actions

import (
	"crypto/hmac"
	"crypto/sha256"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/mr-tron/base58"

	"blinks/apperr"
)

const (
	sigParam      = "sig"
	issuedAtParam = "iat"

	// wallets sign the first transaction before the next POST arrives
	continuationTTL  = 15 * time.Minute
	continuationSkew = time.Minute
	spentCapacity    = 8192
)

// continuation signs next-action URLs so the parameters computed by the
// first POST come back unchanged. Signed URLs carry their issue time, expire
// after continuationTTL and complete at most once per process. An empty
// secret turns signing off.
type continuation struct {
	secret []byte
	now    func() time.Time
	ttl    time.Duration

	mu    sync.Mutex
	spent *expirable.LRU[string, struct{}]
}

func newContinuation(secret string, now func() time.Time) *continuation {
	if now == nil {
		now = time.Now
	}
	return &continuation{
		secret: []byte(secret),
		now:    now,
		ttl:    continuationTTL,
		spent:  expirable.NewLRU[string, struct{}](spentCapacity, nil, continuationTTL+continuationSkew),
	}
}

func (c *continuation) enabled() bool { return len(c.secret) > 0 }

// sign returns path with values as its query, plus iat and sig when enabled.
func (c *continuation) sign(path string, values url.Values) string {
	v := cloneWithout(values, sigParam)
	if c.enabled() {
		v.Set(issuedAtParam, strconv.FormatInt(c.now().Unix(), 10))
		v.Set(sigParam, base58.Encode(c.mac(path, v)))
	}
	return path + "?" + v.Encode()
}

// verify checks the sig and iat parameters of a next-action request.
func (c *continuation) verify(path string, values url.Values) error {
	if !c.enabled() {
		return nil
	}
	sig := values.Get(sigParam)
	if sig == "" {
		return apperr.Validation(sigParam, "Missing continuation signature")
	}
	got, err := base58.Decode(sig)
	if err != nil || !hmac.Equal(got, c.mac(path, cloneWithout(values, sigParam))) {
		return apperr.Validation(sigParam, "Invalid continuation signature")
	}

	iat, err := strconv.ParseInt(values.Get(issuedAtParam), 10, 64)
	if err != nil {
		return apperr.Validation(issuedAtParam, "Invalid continuation timestamp")
	}
	issued := time.Unix(iat, 0)
	now := c.now()
	if now.Sub(issued) > c.ttl || issued.Sub(now) > continuationSkew {
		return apperr.Validation(sigParam, "Continuation expired, start the action again")
	}
	if c.spent.Contains(sig) {
		return apperr.Validation(sigParam, "Continuation already used")
	}
	return nil
}

// claim verifies values and reserves the signed URL, so a replay fails
// until release is called.
func (c *continuation) claim(path string, values url.Values) error {
	if err := c.verify(path, values); err != nil || !c.enabled() {
		return err
	}
	sig := values.Get(sigParam)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.spent.Contains(sig) {
		return apperr.Validation(sigParam, "Continuation already used")
	}
	c.spent.Add(sig, struct{}{})
	return nil
}

// release frees a claimed URL whose action did not complete.
func (c *continuation) release(values url.Values) {
	if !c.enabled() {
		return
	}
	c.spent.Remove(values.Get(sigParam))
}

// mac covers the path and the sorted query.
func (c *continuation) mac(path string, values url.Values) []byte {
	h := hmac.New(sha256.New, c.secret)
	h.Write([]byte(path))
	h.Write([]byte{'?'})
	h.Write([]byte(values.Encode()))
	return h.Sum(nil)
}

func cloneWithout(values url.Values, drop string) url.Values {
	out := make(url.Values, len(values))
	for k, vs := range values {
		if k == drop {
			continue
		}
		out[k] = append([]string(nil), vs...)
	}
	return out
}
