package mqtt

import (
	"time"

	"github.com/golang/glog"

	"github.com/featherforge/arcos.go/pkg/transport"
)

// Stream carries link bytes over a topic pair. Outbound writes publish
// one message per chunk, inbound messages queue up for Read. A chunk
// arriving while the reader is too far behind is dropped, the link
// protocol absorbs the gap like line noise.
type Stream struct {
	Queue    *Queue
	SubTopic string
	PubTopic string

	inbox *transport.Inbox
	sub   *Subscription
}

// NewStream creates a Stream on the Queue. Topics must be set with
// WithTopics, ForHost or ForDevice before Open.
func NewStream(q *Queue) *Stream {
	return &Stream{Queue: q, inbox: transport.NewInbox()}
}

// WithTopics specifies the topics.
func (s *Stream) WithTopics(sub, pub string) *Stream {
	s.SubTopic, s.PubTopic = sub, pub
	return s
}

// ForHost sets topics using the convention of the frame-producing end:
// publish on <name>/tx, listen on <name>/rx.
func (s *Stream) ForHost(name string) *Stream {
	return s.WithTopics(name+"/rx", name+"/tx")
}

// ForDevice sets the mirrored topics of the display end.
func (s *Stream) ForDevice(name string) *Stream {
	return s.WithTopics(name+"/tx", name+"/rx")
}

// Open subscribes the inbound topic.
func (s *Stream) Open() error {
	s.sub = s.Queue.Sub(s.SubTopic, s.handle)
	if tok := s.sub.Token; tok != nil {
		tok.Wait()
		return tok.Error()
	}
	return nil
}

func (s *Stream) handle(_ string, payload []byte) {
	if err := s.inbox.Put(payload); err != nil {
		glog.V(2).Infof("mqtt: inbound chunk lost: %v", err)
	}
}

// Read implements transport.Stream.
func (s *Stream) Read(b []byte) (int, error) {
	return s.inbox.Read(b)
}

// Write publishes one chunk.
func (s *Stream) Write(b []byte) (int, error) {
	token := s.Queue.Pub(s.PubTopic, b)
	token.Wait()
	if err := token.Error(); err != nil {
		return 0, err
	}
	return len(b), nil
}

// SetReadDeadline implements transport.Stream.
func (s *Stream) SetReadDeadline(t time.Time) error {
	return s.inbox.SetReadDeadline(t)
}

// Close drops the subscription and wakes blocked reads.
func (s *Stream) Close() error {
	var err error
	if s.sub != nil {
		err = s.sub.Close()
		s.sub = nil
	}
	s.inbox.Close()
	return err
}

// Dial connects to the broker and opens a host-side stream for name.
func Dial(brokerURL, name string) (*Stream, error) {
	q, err := NewQueueFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	token := q.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, err
	}
	s := NewStream(q).ForHost(name)
	if err := s.Open(); err != nil {
		q.Close()
		return nil, err
	}
	return s, nil
}
