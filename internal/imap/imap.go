package imap

import (
	"time"

	"netflix-verifybot/internal/models"
)

// Client is the mailbox contract the pipeline runs against. All
// message-addressing is UID-based so identifiers stay stable when
// another client expunges concurrently.
type Client interface {
	Connect(addr string) error
	Login(user, password string) error
	SelectMailbox(name string) error
	Noop() error
	SearchFrom(sender string) ([]uint32, error)
	SearchAll() ([]uint32, error)
	FetchEmail(uid uint32) (*models.Email, error)
	InternalDates(uids []uint32) (map[uint32]time.Time, error)
	Move(uid uint32, folder string) error
	Delete(uid uint32) error
	MarkSeen(uid uint32) error
	Close() error
}
