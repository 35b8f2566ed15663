// Package mirror keeps a live three-level copy of a user's semesters, the subjects of the active semester
// and the labs of each of those subjects.
//
// A Manager owns one subscription per mirrored collection. Store callbacks and public operations are
// funnelled through a serial queue, so reactions never overlap and never re-enter: a subscription opened
// from within a reaction delivers its first snapshot after that reaction returns.
package mirror

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/trezcool/studytrack/core"
	"github.com/trezcool/studytrack/core/lab"
	"github.com/trezcool/studytrack/core/semester"
	"github.com/trezcool/studytrack/core/serial"
	"github.com/trezcool/studytrack/core/status"
	"github.com/trezcool/studytrack/core/subject"
)

type Manager struct {
	store  core.DocumentStore
	logger core.Logger
	queue  serial.Queue
	ticket uint64 // bumped by every Attach and Detach call; a queued call superseded by a later one is skipped
	gen    uint64 // subscription generation, bumped from the queue; events of an older generation are dropped

	// owned by the queue
	uid       string
	semSub    *subscription
	subjSub   *subscription
	labSubs   map[string]*subscription // by subject id
	activeID  string
	semesters []semester.Semester
	subjects  []subject.Subject
	labs      map[string][]lab.LabWork
	warned    map[string]bool // unrecognized statuses already logged

	mu   sync.RWMutex
	snap Snapshot

	obsMu     sync.Mutex
	observers map[int]func(Event)
	nextObs   int
}

func NewManager(store core.DocumentStore, logger core.Logger) *Manager {
	m := &Manager{
		store:     store,
		logger:    logger,
		observers: make(map[int]func(Event)),
		warned:    make(map[string]bool),
	}
	m.reset()
	m.snap = emptySnapshot("")
	return m
}

// Observe registers fn to receive every event. fn runs on the goroutine applying the change
// and must not block; it must not call back into the manager synchronously either.
func (m *Manager) Observe(fn func(Event)) (remove func()) {
	m.obsMu.Lock()
	id := m.nextObs
	m.nextObs++
	m.observers[id] = fn
	m.obsMu.Unlock()

	return func() {
		m.obsMu.Lock()
		delete(m.observers, id)
		m.obsMu.Unlock()
	}
}

// Snapshot returns the latest published snapshot.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snap
}

// Subscriptions returns the number of live subscriptions.
func (m *Manager) Subscriptions() int {
	return m.Snapshot().States.Subscriptions()
}

// Attach starts mirroring uid. Attaching another user first detaches the current one;
// attaching the current user again changes nothing.
// The returned disposer detaches, unless the manager has been detached or re-attached since.
// It may be called before the attachment has been applied.
func (m *Manager) Attach(uid string) core.Disposer {
	ticket := atomic.AddUint64(&m.ticket, 1)
	m.queue.Do(func() {
		if atomic.LoadUint64(&m.ticket) != ticket {
			return
		}
		if m.uid == uid && m.semSub != nil {
			return
		}
		m.detach()
		gen := atomic.AddUint64(&m.gen, 1)
		m.uid = uid
		m.semSub = m.open(Semesters, core.SemestersPath(uid), "", gen)
		m.publish(nil)
	})

	return core.OnceDisposer(func() {
		if atomic.CompareAndSwapUint64(&m.ticket, ticket, ticket+1) {
			m.detachAt(ticket + 1)
		}
	})
}

// Detach disposes every subscription, labs first, then subjects, then semesters, and clears the mirror.
// Events already in flight are dropped. Detaching a detached manager is a no-op.
func (m *Manager) Detach() {
	m.detachAt(atomic.AddUint64(&m.ticket, 1))
}

func (m *Manager) detachAt(ticket uint64) {
	m.queue.Do(func() {
		if atomic.LoadUint64(&m.ticket) != ticket {
			return
		}
		m.detach()
	})
}

// Refresh reopens the subscriptions that failed. It is the retry hook; the manager never retries by itself.
func (m *Manager) Refresh() {
	m.queue.Do(func() {
		gen := atomic.LoadUint64(&m.gen)
		reopened := false
		if m.semSub != nil && m.semSub.state == Failed {
			m.semSub = m.open(Semesters, m.semSub.collection, "", gen)
			reopened = true
		}
		if m.subjSub != nil && m.subjSub.state == Failed {
			m.subjSub = m.open(Subjects, m.subjSub.collection, m.subjSub.parentID, gen)
			reopened = true
		}
		for id, sub := range m.labSubs {
			if sub.state == Failed {
				m.labSubs[id] = m.open(Labs, sub.collection, id, gen)
				reopened = true
			}
		}
		if reopened {
			m.publish(nil)
		}
	})
}

func (m *Manager) reset() {
	m.uid = ""
	m.semSub, m.subjSub = nil, nil
	m.labSubs = make(map[string]*subscription)
	m.activeID = ""
	m.semesters = []semester.Semester{}
	m.subjects = []subject.Subject{}
	m.labs = map[string][]lab.LabWork{}
}

func (m *Manager) detach() {
	if m.uid == "" && m.semSub == nil {
		return
	}
	atomic.AddUint64(&m.gen, 1)
	m.closeSubjects()
	if m.semSub != nil {
		m.semSub.close()
	}
	uid := m.uid
	m.reset()
	m.publish(nil)
	m.debug("mirror detached", uid)
}

// open subscribes to a collection. The store may deliver synchronously; the event is queued behind
// the running reaction, by which time the subscription is fully set up.
func (m *Manager) open(lvl Level, coll, parentID string, gen uint64) *subscription {
	sub := &subscription{level: lvl, collection: coll, parentID: parentID, state: Subscribing}
	sub.dispose = m.store.Listen(coll, func(docs []core.Document, err error) {
		if sub.isClosed() || atomic.LoadUint64(&m.gen) != gen {
			return
		}
		m.queue.Do(func() {
			if sub.isClosed() || atomic.LoadUint64(&m.gen) != gen {
				return
			}
			m.handle(sub, docs, err)
		})
	})
	return sub
}

func (m *Manager) handle(sub *subscription, docs []core.Document, err error) {
	if err != nil {
		sub.close()
		sub.state = Failed
		sub.err = err
		subErr := &SubscriptionError{Level: sub.level, Collection: sub.collection, Err: err}
		if m.logger != nil {
			m.logger.Warn(subErr.Error(), err, core.UserID(m.uid))
		}
		m.publish(subErr)
		return
	}

	sub.state = Active
	switch sub.level {
	case Semesters:
		m.onSemesters(docs)
	case Subjects:
		m.onSubjects(sub.parentID, docs)
	case Labs:
		m.onLabs(sub.parentID, docs)
	}
	m.publish(nil)
}

// onSemesters follows the active semester: its subject subscription is replaced when it changes
// and torn down when no semester is active.
func (m *Manager) onSemesters(docs []core.Document) {
	m.semesters = semester.FromDocuments(docs)

	active, ok := semester.Active(m.semesters)
	if active.ID == m.activeID {
		return
	}
	m.closeSubjects()
	m.activeID = active.ID
	if ok {
		gen := atomic.LoadUint64(&m.gen)
		m.subjSub = m.open(Subjects, core.SubjectsPath(m.uid, active.ID), active.ID, gen)
	}
}

// closeSubjects disposes the lab subscriptions, then the subject subscription, and clears both mirrors.
func (m *Manager) closeSubjects() {
	for id, sub := range m.labSubs {
		sub.close()
		delete(m.labSubs, id)
	}
	if m.subjSub != nil {
		m.subjSub.close()
		m.subjSub = nil
	}
	m.subjects = []subject.Subject{}
	m.labs = map[string][]lab.LabWork{}
}

// onSubjects opens a lab subscription for every new subject and disposes those of vanished subjects.
// Subjects that persist keep their subscription.
func (m *Manager) onSubjects(semesterID string, docs []core.Document) {
	m.subjects = subject.FromDocuments(semesterID, docs)

	present := make(map[string]bool, len(m.subjects))
	for _, s := range m.subjects {
		present[s.ID] = true
	}

	labs := make(map[string][]lab.LabWork, len(m.subjects))
	for id, sub := range m.labSubs {
		if !present[id] {
			sub.close()
			delete(m.labSubs, id)
			continue
		}
		labs[id] = m.labs[id]
	}
	m.labs = labs

	gen := atomic.LoadUint64(&m.gen)
	for _, s := range m.subjects {
		if _, ok := m.labSubs[s.ID]; !ok {
			m.labSubs[s.ID] = m.open(Labs, core.LabsPath(m.uid, semesterID, s.ID), s.ID, gen)
		}
	}
}

func (m *Manager) onLabs(subjectID string, docs []core.Document) {
	labs := lab.FromDocuments(m.activeID, subjectID, docs)
	m.warnUnrecognized(labs)

	next := make(map[string][]lab.LabWork, len(m.labs))
	for id, l := range m.labs {
		next[id] = l
	}
	next[subjectID] = labs
	m.labs = next
}

func (m *Manager) warnUnrecognized(labs []lab.LabWork) {
	if m.logger == nil {
		return
	}
	for _, l := range labs {
		if l.RawStatus == "" || l.Status.IsCanonical() || m.warned[l.RawStatus] {
			continue
		}
		m.warned[l.RawStatus] = true
		extra := map[string]interface{}{"status": l.RawStatus, "lab": l.ID, "subject": l.SubjectID}
		if sug, ok := status.Suggest(l.RawStatus); ok {
			extra["suggestion"] = string(sug.Status)
			extra["similarity"] = fmt.Sprintf("%.2f", sug.Ratio)
		}
		m.logger.Warn("unrecognized lab status", extra, core.UserID(m.uid))
	}
}

// publish replaces the snapshot and notifies observers. Called from the queue only.
func (m *Manager) publish(err error) {
	snap := Snapshot{
		UserID:    m.uid,
		Semesters: m.semesters,
		Subjects:  m.subjects,
		Labs:      m.labs,
		States: States{
			Semesters: stateOf(m.semSub),
			Subjects:  stateOf(m.subjSub),
			Labs:      make(map[string]State, len(m.labSubs)),
		},
	}
	if active, ok := semester.Active(m.semesters); ok && active.ID == m.activeID {
		snap.Active = &active
	}
	for id, sub := range m.labSubs {
		snap.States.Labs[id] = sub.state
	}

	m.mu.Lock()
	m.snap = snap
	m.mu.Unlock()

	m.obsMu.Lock()
	observers := make([]func(Event), 0, len(m.observers))
	for _, fn := range m.observers {
		observers = append(observers, fn)
	}
	m.obsMu.Unlock()

	ev := Event{Snapshot: snap, Err: err}
	for _, fn := range observers {
		fn(ev)
	}
}

func (m *Manager) debug(msg, uid string) {
	if m.logger != nil {
		m.logger.Debug(msg, core.UserID(uid))
	}
}
