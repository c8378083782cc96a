package resetrepofake

import (
	"sync"

	"github.com/jrsteele09/go-session-client/authority/token/reset"
	"github.com/jrsteele09/go-session-client/internal/errors"
)

var _ reset.Repo = (*FakeResetTokenRepo)(nil)

type FakeResetTokenRepo struct {
	tokens map[string]reset.StoredResetToken
	lock   sync.Mutex
}

func NewFakeResetTokenRepo() reset.Repo {
	return &FakeResetTokenRepo{tokens: make(map[string]reset.StoredResetToken)}
}

func (r *FakeResetTokenRepo) Put(t *reset.StoredResetToken) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.tokens[t.Token] = *t
	return nil
}

func (r *FakeResetTokenRepo) Take(token string) (*reset.StoredResetToken, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	t, ok := r.tokens[token]
	if !ok {
		return nil, errors.ErrNotFound
	}
	delete(r.tokens, token)
	return &t, nil
}

func (r *FakeResetTokenRepo) DeleteByUserID(userID string) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	for k, t := range r.tokens {
		if t.UserID == userID {
			delete(r.tokens, k)
		}
	}
	return nil
}
