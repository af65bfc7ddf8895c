package event

import (
	"sync"

	"github.com/harryhq/mail-manager/pkg/model"
	"golang.org/x/exp/maps"
)

// subscriberBufferSize bounds how many undelivered events a subscriber can accumulate
// before Send starts dropping for them.
const subscriberBufferSize = 16

func NewEventBroker() *Broker {
	return &Broker{
		subscribers: make(map[uint]Subscriber),
		lock:        sync.Mutex{},
	}
}

type Event struct {
	Type    string
	Message string
}

type Subscriber struct {
	user    model.User
	channel chan Event
}

// Broker fans events out to subscribed users. A user has at most one subscription, a new
// Subscribe replaces the previous one.
type Broker struct {
	subscribers map[uint]Subscriber
	lock        sync.Mutex
}

func (e *Broker) Subscribe(user model.User) {
	e.lock.Lock()
	defer e.lock.Unlock()
	if subscriber, ok := e.subscribers[user.ID]; ok {
		close(subscriber.channel)
	}
	e.subscribers[user.ID] = Subscriber{
		user:    user,
		channel: make(chan Event, subscriberBufferSize),
	}
}

func (e *Broker) Unsubscribe(id uint) {
	e.lock.Lock()
	defer e.lock.Unlock()
	subscriber, ok := e.subscribers[id]
	if !ok {
		return
	}
	close(subscriber.channel)
	delete(e.subscribers, id)
}

func (e *Broker) Subscribers() []model.User {
	e.lock.Lock()
	defer e.lock.Unlock()
	keys := maps.Keys(e.subscribers)
	subscribers := make([]model.User, len(keys))
	for i, key := range keys {
		subscribers[i] = e.subscribers[key].user
	}
	return subscribers
}

// Send never blocks. It reports false if the user has no subscription or their buffer is
// full, the event is dropped in both cases.
func (e *Broker) Send(id uint, event Event) bool {
	e.lock.Lock()
	defer e.lock.Unlock()
	subscriber, ok := e.subscribers[id]
	if !ok {
		return false
	}
	select {
	case subscriber.channel <- event:
		return true
	default:
		return false
	}
}

// Receive blocks until an event arrives for the user. It reports false once the user is
// unsubscribed.
func (e *Broker) Receive(id uint) (Event, bool) {
	e.lock.Lock()
	subscriber, ok := e.subscribers[id]
	e.lock.Unlock()
	if !ok {
		return Event{}, false
	}
	event, ok := <-subscriber.channel
	return event, ok
}
