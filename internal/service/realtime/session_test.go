package realtime

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type sentFrame struct {
	kind   FrameKind
	text   string
	data   []byte
	reason *CloseReason
}

type fakeTransport struct {
	mu       sync.Mutex
	frames   []sentFrame
	closes   int
	writeErr error
}

func (f *fakeTransport) WriteText(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, sentFrame{kind: FrameText, text: text})
	return f.writeErr
}

func (f *fakeTransport) WriteBinary(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, sentFrame{kind: FrameBinary, data: append([]byte(nil), data...)})
	return f.writeErr
}

func (f *fakeTransport) WriteClose(reason *CloseReason) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, sentFrame{kind: FrameClose, reason: reason})
	return f.writeErr
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	return nil
}

func (f *fakeTransport) sent() []sentFrame {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentFrame(nil), f.frames...)
}

func startedSession(t *testing.T) (*Session, *fakeTransport) {
	t.Helper()
	tr := &fakeTransport{}
	s := NewSession("conn-1", tr)
	s.Start()
	require.Equal(t, StateActive, s.State())
	return s, tr
}

func TestSessionGreetingIsFirstFrame(t *testing.T) {
	tr := &fakeTransport{}
	s := NewSession("conn-1", tr)
	require.Equal(t, StateStarted, s.State())

	s.Start()
	s.Handle(TextFrame(`{"chat_message":"hello there"}`))

	frames := tr.sent()
	require.Len(t, frames, 2)
	require.Equal(t, FrameText, frames[0].kind)
	require.Equal(t, DefaultGreeting, frames[0].text)
}

func TestSessionCustomGreeting(t *testing.T) {
	tr := &fakeTransport{}
	s := NewSession("conn-1", tr, WithGreeting("welcome"))
	s.Start()
	s.Start()

	frames := tr.sent()
	require.Len(t, frames, 1, "greeting must be sent exactly once")
	require.Equal(t, "welcome", frames[0].text)
}

func TestSessionFramesBeforeStartAreIgnored(t *testing.T) {
	tr := &fakeTransport{}
	s := NewSession("conn-1", tr)

	s.Handle(TextFrame(`{"chat_message":"too early"}`))
	require.Empty(t, tr.sent())
}

func TestSessionTextFrameRendersSanitizedFragment(t *testing.T) {
	s, tr := startedSession(t)

	s.Handle(TextFrame(`{"chat_message":"hi <script>alert(1)</script><b>bold</b>","HEADERS":{"HX-Request":"true"}}`))

	frames := tr.sent()
	require.Len(t, frames, 2)
	out := frames[1]
	require.Equal(t, FrameText, out.kind)
	require.NotContains(t, out.text, "<script>")
	require.NotContains(t, out.text, "alert(1)")
	require.Contains(t, out.text, `<div id="chat_room" hx-swap-oob="beforeend">hi <b>bold</b><br></div>`)
	require.Contains(t, out.text, `id="form-ws"`)
	require.Less(t, strings.Index(out.text, ChatRoomID), strings.Index(out.text, ComposerFormID))
	require.Equal(t, StateActive, s.State())
}

func TestSessionIgnoresUndecodablePayloads(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"not json", "chat_message=hello"},
		{"missing field", `{"message":"hello"}`},
		{"null field", `{"chat_message":null}`},
		{"number field", `{"chat_message":42}`},
		{"array", `["chat_message"]`},
		{"json null", `null`},
		{"empty", ``},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, tr := startedSession(t)

			s.Handle(TextFrame(tc.payload))
			require.Len(t, tr.sent(), 1, "only the greeting should have been sent")
			require.Equal(t, StateActive, s.State())

			s.Handle(TextFrame(`{"chat_message":"still here"}`))
			frames := tr.sent()
			require.Len(t, frames, 2)
			require.Contains(t, frames[1].text, "still here")
		})
	}
}

func TestSessionEmptyChatMessageStillRenders(t *testing.T) {
	s, tr := startedSession(t)

	s.Handle(TextFrame(`{"chat_message":""}`))
	frames := tr.sent()
	require.Len(t, frames, 2)
	require.Contains(t, frames[1].text, `hx-swap-oob="beforeend"><br></div>`)
}

func TestSessionBinaryEchoIsVerbatim(t *testing.T) {
	s, tr := startedSession(t)
	payload := []byte{0x00, '<', 's', 'c', 'r', 'i', 'p', 't', '>', 0xff}

	s.Handle(BinaryFrame(payload))

	frames := tr.sent()
	require.Len(t, frames, 2)
	require.Equal(t, FrameBinary, frames[1].kind)
	require.Equal(t, payload, frames[1].data)
}

func TestSessionMessagesDoNotLeakAcrossFrames(t *testing.T) {
	s, tr := startedSession(t)

	s.Handle(TextFrame(`{"chat_message":"first message"}`))
	s.Handle(TextFrame(`{"chat_message":"second message"}`))

	frames := tr.sent()
	require.Len(t, frames, 3)
	require.Contains(t, frames[1].text, "first message")
	require.NotContains(t, frames[1].text, "second message")
	require.Contains(t, frames[2].text, "second message")
	require.NotContains(t, frames[2].text, "first message")
}

func TestSessionContinuationAndNopProduceNothing(t *testing.T) {
	s, tr := startedSession(t)

	s.Handle(Frame{Kind: FrameContinuation, Data: []byte("partial")})
	s.Handle(Frame{Kind: FrameNop})

	require.Len(t, tr.sent(), 1)
	require.Equal(t, StateActive, s.State())
}

func TestSessionCloseAcknowledgesWithSameReason(t *testing.T) {
	s, tr := startedSession(t)
	reason := &CloseReason{Code: CloseNormalClosure, Text: "bye"}

	s.Handle(CloseFrame(reason))

	frames := tr.sent()
	require.Len(t, frames, 2)
	require.Equal(t, FrameClose, frames[1].kind)
	require.Equal(t, reason, frames[1].reason)
	require.Equal(t, StateTerminated, s.State())
	require.Equal(t, 1, tr.closes)

	s.Handle(TextFrame(`{"chat_message":"after close"}`))
	s.Handle(BinaryFrame([]byte("after close")))
	s.Handle(CloseFrame(nil))
	require.Len(t, tr.sent(), 2, "no output after termination")
	require.Equal(t, 1, tr.closes)
}

func TestSessionCloseWithoutReason(t *testing.T) {
	s, tr := startedSession(t)

	s.Handle(CloseFrame(nil))

	frames := tr.sent()
	require.Len(t, frames, 2)
	require.Nil(t, frames[1].reason)
	require.Equal(t, StateTerminated, s.State())
}

func TestSessionTerminateReleasesOnce(t *testing.T) {
	s, tr := startedSession(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Terminate(CloseGoingAway, "shutdown")
		}()
	}
	wg.Wait()
	s.Abort()

	require.Equal(t, 1, tr.closes)
	require.Equal(t, StateTerminated, s.State())

	closeFrames := 0
	for _, f := range tr.sent() {
		if f.kind == FrameClose {
			closeFrames++
			require.Equal(t, CloseGoingAway, f.reason.Code)
		}
	}
	require.Equal(t, 1, closeFrames)
}

func TestSessionAbortSendsNoCloseFrame(t *testing.T) {
	s, tr := startedSession(t)

	s.Abort()

	require.Len(t, tr.sent(), 1)
	require.Equal(t, 1, tr.closes)
	require.Equal(t, StateTerminated, s.State())
}

func TestSessionWriteErrorsAreNotFatal(t *testing.T) {
	tr := &fakeTransport{writeErr: errors.New("broken pipe")}
	s := NewSession("conn-1", tr)
	s.Start()

	s.Handle(TextFrame(`{"chat_message":"hello"}`))
	require.Equal(t, StateActive, s.State())
	require.Len(t, tr.sent(), 2)
}
