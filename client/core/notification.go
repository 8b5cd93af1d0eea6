// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"miauswap.org/cdex/dex/order"
)

// maxStoredNotes is how many notes are kept for the notification drawer.
const maxStoredNotes = 100

// Severity indicates the level of required action for a notification.
type Severity uint8

// Notification severities. Notes of Poke or higher are user-visible toasts
// and are stored.
const (
	Ignorable Severity = iota
	Data
	Poke
	Success
	WarningLevel
	ErrorLevel
)

var severityNames = map[Severity]string{
	Ignorable:    "ignorable",
	Data:         "data",
	Poke:         "poke",
	Success:      "success",
	WarningLevel: "warning",
	ErrorLevel:   "error",
}

// String satisfies fmt.Stringer.
func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Severity(%d)", s)
}

// MarshalText satisfies encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ParseSeverity parses a severity name.
func ParseSeverity(name string) (Severity, error) {
	for s, n := range severityNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown severity %q", name)
}

// notify sends a notification to all subscribers. If the notification is of
// sufficient severity, it is stored for the notification drawer.
func (c *Core) notify(n Notification) {
	if n.Time() == 0 {
		n.Stamp(c.now())
	}
	if n.Severity() >= Poke {
		c.noteMtx.Lock()
		c.notes = append([]Notification{n}, c.notes...)
		if len(c.notes) > maxStoredNotes {
			c.notes = c.notes[:maxStoredNotes]
		}
		c.noteMtx.Unlock()
		c.updateUnread()
		log.Debugf("notification %s: %s", n.Subject(), n.Details())
	}
	// Subscribers get a copy, so the stored note is never shared with them.
	out := n.clone()
	c.noteMtx.RLock()
	for _, ch := range c.noteChans {
		select {
		case ch <- out:
		default:
			log.Errorf("blocking notification channel")
		}
	}
	c.noteMtx.RUnlock()
}

// NotificationFeed returns a new receiving channel for notifications. The
// channel has capacity 16, and should be monitored for the lifetime of the
// Core. Blocking channels are silently ignored.
func (c *Core) NotificationFeed() <-chan Notification {
	ch := make(chan Notification, 16)
	c.noteMtx.Lock()
	c.noteChans = append(c.noteChans, ch)
	c.noteMtx.Unlock()
	return ch
}

// AckNotes sets the acknowledgement field for the notifications. Unknown IDs
// are ignored.
func (c *Core) AckNotes(ids []string) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	c.noteMtx.Lock()
	for i, n := range c.notes {
		if want[n.ID()] && !n.Acked() {
			c.notes[i] = acked(n)
		}
	}
	c.noteMtx.Unlock()
	c.updateUnread()
}

// AckAllNotes marks every stored notification as read.
func (c *Core) AckAllNotes() {
	c.noteMtx.Lock()
	for i, n := range c.notes {
		if !n.Acked() {
			c.notes[i] = acked(n)
		}
	}
	c.noteMtx.Unlock()
	c.updateUnread()
}

// acked is an acknowledged copy of the note. Stored notes are replaced rather
// than modified, as the notes returned by Notifications may still be in use.
func acked(n Notification) Notification {
	a := n.clone()
	a.Base().Ack = true
	return a
}

// Notifications returns up to n stored notifications, newest first. n <= 0
// returns them all.
func (c *Core) Notifications(n int) []Notification {
	c.noteMtx.RLock()
	defer c.noteMtx.RUnlock()
	if n <= 0 || n > len(c.notes) {
		n = len(c.notes)
	}
	notes := make([]Notification, n)
	copy(notes, c.notes[:n])
	return notes
}

// UnreadCount is the number of stored notifications not yet acknowledged.
func (c *Core) UnreadCount() int {
	c.noteMtx.RLock()
	defer c.noteMtx.RUnlock()
	var count int
	for _, n := range c.notes {
		if !n.Acked() {
			count++
		}
	}
	return count
}

func (c *Core) updateUnread() {
	c.metrics.unreadNotes.Set(float64(c.UnreadCount()))
}

// Notification is an interface for a user notification. The concrete types
// embed a Note.
type Notification interface {
	// Type is a string ID unique to the concrete type.
	Type() string
	// Topic is a language-independent unique ID for the message.
	Topic() Topic
	// Subject is a short description of the notification contents.
	Subject() string
	// Details should contain more detailed information.
	Details() string
	// Severity is the notification severity.
	Severity() Severity
	// Time is the notification timestamp, a UNIX timestamp in milliseconds.
	Time() uint64
	// Acked is true if the user has seen the notification. Acknowledgement is
	// recorded with (*Core).AckNotes.
	Acked() bool
	// ID is unique to the notification.
	ID() string
	// Stamp sets the notification timestamp.
	Stamp(time.Time)
	// Base returns the underlying *Note.
	Base() *Note

	clone() Notification
}

// Note is the fields shared by every notification.
type Note struct {
	NoteType    string   `json:"type"`
	TopicID     Topic    `json:"topic"`
	SubjectText string   `json:"subject"`
	DetailText  string   `json:"details"`
	Severeness  Severity `json:"severity"`
	TimeStamp   uint64   `json:"stamp"`
	Ack         bool     `json:"acked"`
	Id          string   `json:"id"`
}

func newNote(noteType string, topic Topic, subject, details string, severity Severity) Note {
	return Note{
		NoteType:    noteType,
		TopicID:     topic,
		SubjectText: subject,
		DetailText:  details,
		Severeness:  severity,
		Id:          uuid.NewString(),
	}
}

// Type is the notification type.
func (n *Note) Type() string { return n.NoteType }

// Topic is the notification topic.
func (n *Note) Topic() Topic { return n.TopicID }

// Subject is the notification subject.
func (n *Note) Subject() string { return n.SubjectText }

// Details is the notification body.
func (n *Note) Details() string { return n.DetailText }

// Severity is the notification severity.
func (n *Note) Severity() Severity { return n.Severeness }

// Time is the notification timestamp in milliseconds.
func (n *Note) Time() uint64 { return n.TimeStamp }

// Acked is whether the notification has been read.
func (n *Note) Acked() bool { return n.Ack }

// ID is the notification's unique ID.
func (n *Note) ID() string { return n.Id }

// Stamp sets the timestamp.
func (n *Note) Stamp(t time.Time) { n.TimeStamp = uint64(t.UnixMilli()) }

// Base returns the *Note itself.
func (n *Note) Base() *Note { return n }

// String is the notification summary.
func (n *Note) String() string {
	return fmt.Sprintf("%s: %s", n.SubjectText, n.DetailText)
}

// Notification types.
const (
	NoteTypeOrder        = "order"
	NoteTypeBalance      = "balance"
	NoteTypeStaking      = "staking"
	NoteTypeDistribution = "distribution"
	NoteTypePrice        = "price"
	NoteTypeAccount      = "account"
)

// OrderNote is a notification about an order.
type OrderNote struct {
	Note
	Order *order.Order `json:"order,omitempty"`
}

func newOrderNote(topic Topic, subject, details string, severity Severity, ord *order.Order) *OrderNote {
	return &OrderNote{
		Note:  newNote(NoteTypeOrder, topic, subject, details, severity),
		Order: ord,
	}
}

func (n *OrderNote) clone() Notification {
	c := *n
	return &c
}

// BalanceNote is an update to the wallet and staked balances.
type BalanceNote struct {
	Note
	Balance decimal.Decimal `json:"balance"`
	Staked  decimal.Decimal `json:"staked"`
}

func newBalanceNote(balance, staked decimal.Decimal) *BalanceNote {
	return &BalanceNote{
		Note:    newNote(NoteTypeBalance, TopicBalanceUpdated, "", "", Data),
		Balance: balance,
		Staked:  staked,
	}
}

func (n *BalanceNote) clone() Notification {
	c := *n
	return &c
}

// StakingNote is a notification about a stake or unstake.
type StakingNote struct {
	Note
	Tier string `json:"tier,omitempty"`
}

func newStakingNote(topic Topic, subject, details string, severity Severity, tier string) *StakingNote {
	return &StakingNote{
		Note: newNote(NoteTypeStaking, topic, subject, details, severity),
		Tier: tier,
	}
}

func (n *StakingNote) clone() Notification {
	c := *n
	return &c
}

// DistributionNote is a notification about a weekly distribution payout.
type DistributionNote struct {
	Note
	CreatorID string          `json:"creatorID"`
	ETH       decimal.Decimal `json:"eth"`
}

func newDistributionNote(topic Topic, subject, details string, severity Severity, creatorID string, eth decimal.Decimal) *DistributionNote {
	return &DistributionNote{
		Note:      newNote(NoteTypeDistribution, topic, subject, details, severity),
		CreatorID: creatorID,
		ETH:       eth,
	}
}

func (n *DistributionNote) clone() Notification {
	c := *n
	return &c
}

// PriceNote is a reference price update.
type PriceNote struct {
	Note
	CreatorID string          `json:"creatorID"`
	Market    string          `json:"pair"`
	Price     decimal.Decimal `json:"price"`
}

func newPriceNote(creatorID, mkt string, price decimal.Decimal) *PriceNote {
	return &PriceNote{
		Note:      newNote(NoteTypePrice, TopicPriceUpdated, "", "", Data),
		CreatorID: creatorID,
		Market:    mkt,
		Price:     price,
	}
}

func (n *PriceNote) clone() Notification {
	c := *n
	return &c
}

// AccountNote is a notification about trading access.
type AccountNote struct {
	Note
}

func newAccountNote(topic Topic, subject, details string, severity Severity) *AccountNote {
	return &AccountNote{
		Note: newNote(NoteTypeAccount, topic, subject, details, severity),
	}
}

func (n *AccountNote) clone() Notification {
	c := *n
	return &c
}
