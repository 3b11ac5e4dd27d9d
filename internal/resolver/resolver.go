// Package resolver binds every API operation to the services behind it.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"bookshelf/internal/auth"
	"bookshelf/internal/domain"
	"bookshelf/internal/pubsub"
	"bookshelf/internal/repository"
	"bookshelf/internal/service"
)

// TopicBookAdded carries a domain.Book for every successful addBook.
const TopicBookAdded = "BOOK_ADDED"

// TokenIssuer issues tokens after registration and login.
type TokenIssuer interface {
	Issue(subject auth.Subject) (string, error)
	TTL() time.Duration
}

// Authorizer guards mutating operations. The returned context carries the
// verified claims, see auth.ClaimsFromContext.
type Authorizer interface {
	Authorize(ctx context.Context) (context.Context, error)
}

// Config lists the collaborators of a Resolver.
type Config struct {
	Users  service.UserService
	Books  service.BookService
	Tokens TokenIssuer
	Gate   Authorizer
	Bus    *pubsub.Bus
	Logger logrus.FieldLogger
}

// Resolver is the root of all operations. It holds no per-request state.
type Resolver struct {
	users  service.UserService
	books  service.BookService
	tokens TokenIssuer
	gate   Authorizer
	bus    *pubsub.Bus
	logger logrus.FieldLogger
}

func New(cfg Config) *Resolver {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &Resolver{
		users:  cfg.Users,
		books:  cfg.Books,
		tokens: cfg.Tokens,
		gate:   cfg.Gate,
		bus:    cfg.Bus,
		logger: cfg.Logger,
	}
}

// CredentialsInput is the input of register and login.
type CredentialsInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// BookInput is the input of addBook.
type BookInput struct {
	Title  string `json:"title"`
	Author string `json:"author"`
}

// AuthPayload is returned by register and login.
type AuthPayload struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"`
}

// Account is the public view of the caller's account.
type Account struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Books lists the whole catalog.
func (r *Resolver) Books(ctx context.Context) ([]domain.Book, error) {
	return r.books.ListBooks(ctx)
}

// Register creates an account and logs it in.
func (r *Resolver) Register(ctx context.Context, in CredentialsInput) (*AuthPayload, error) {
	user, err := r.users.Register(ctx, in.Username, in.Password)
	if err != nil {
		return nil, err
	}
	r.logger.WithFields(logrus.Fields{"user_id": user.ID, "username": user.Username}).Info("user registered")
	return r.authPayload(user)
}

// Login exchanges valid credentials for a fresh token.
func (r *Resolver) Login(ctx context.Context, in CredentialsInput) (*AuthPayload, error) {
	user, err := r.users.Authenticate(ctx, in.Username, in.Password)
	if err != nil {
		return nil, err
	}
	return r.authPayload(user)
}

// Me resolves the account the request token was issued for.
func (r *Resolver) Me(ctx context.Context) (*Account, error) {
	ctx, err := r.gate.Authorize(ctx)
	if err != nil {
		return nil, err
	}
	claims := auth.ClaimsFromContext(ctx)

	user, err := r.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: account %d no longer exists", auth.ErrInvalidToken, claims.UserID)
		}
		return nil, err
	}
	return &Account{ID: user.ID, Username: user.Username}, nil
}

// AddBook stores a book and announces it on TopicBookAdded.
func (r *Resolver) AddBook(ctx context.Context, in BookInput) (*domain.Book, error) {
	ctx, err := r.gate.Authorize(ctx)
	if err != nil {
		return nil, err
	}
	claims := auth.ClaimsFromContext(ctx)

	book, err := r.books.CreateBook(ctx, in.Title, in.Author)
	if err != nil {
		return nil, err
	}

	event := r.bus.Publish(TopicBookAdded, *book)
	r.logger.WithFields(logrus.Fields{
		"book_id":  book.ID,
		"user_id":  claims.UserID,
		"event_id": event.ID,
	}).Info("book added")
	return book, nil
}

// DeleteBook removes a book. A missing id is reported as success.
func (r *Resolver) DeleteBook(ctx context.Context, id int64) (string, error) {
	ctx, err := r.gate.Authorize(ctx)
	if err != nil {
		return "", err
	}
	claims := auth.ClaimsFromContext(ctx)

	existed, err := r.books.DeleteBook(ctx, id)
	if err != nil {
		return "", err
	}

	r.logger.WithFields(logrus.Fields{
		"book_id": id,
		"user_id": claims.UserID,
		"existed": existed,
	}).Info("book deleted")
	return fmt.Sprintf("book %d deleted", id), nil
}

// BookAdded streams every book added after the call until ctx is done.
// The returned channel is closed on teardown.
func (r *Resolver) BookAdded(ctx context.Context) (<-chan domain.Book, error) {
	sub, err := r.bus.Subscribe(ctx, TopicBookAdded)
	if err != nil {
		return nil, err
	}

	log := r.logger.WithFields(logrus.Fields{"topic": TopicBookAdded, "subscriber_id": sub.ID()})
	log.Debug("subscription opened")

	out := make(chan domain.Book)
	go func() {
		defer close(out)
		defer sub.Close()
		defer log.Debug("subscription closed")
		for event := range sub.Events() {
			book, ok := event.Payload.(domain.Book)
			if !ok {
				log.WithField("event_id", event.ID).Warnf("unexpected payload %T on %s", event.Payload, event.Topic)
				continue
			}
			select {
			case out <- book:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (r *Resolver) authPayload(user *domain.User) (*AuthPayload, error) {
	token, err := r.tokens.Issue(auth.Subject{UserID: user.ID, Username: user.Username})
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthPayload{
		ID:        user.ID,
		Username:  user.Username,
		Token:     token,
		ExpiresIn: int64(r.tokens.TTL() / time.Second),
	}, nil
}
