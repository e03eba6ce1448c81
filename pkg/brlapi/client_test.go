package brlapi_test

import (
	"bufio"
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dbernaca/brltty2/pkg/brlapi"
	"github.com/dbernaca/brltty2/pkg/wire"
)

// fakeServer is a minimal scripted BRLTTY stand-in driven over a
// net.Pipe, in the style of pkg/websocket/datatransfer_test.go's
// table-driven net.Pipe tests.
type fakeServer struct {
	conn   net.Conn
	reader *bufio.Reader
}

func newFakeServer(conn net.Conn) *fakeServer {
	return &fakeServer{conn: conn, reader: bufio.NewReader(conn)}
}

func (s *fakeServer) send(p wire.Packet) {
	s.conn.Write(wire.Encode(p))
}

// recv reads and parses exactly one frame from the client.
func (s *fakeServer) recv(t *testing.T) wire.Packet {
	t.Helper()
	header := make([]byte, 8)
	if _, err := readFull(s.reader, header); err != nil {
		t.Fatalf("fakeServer.recv: reading header: %v", err)
	}
	size := int(header[0])<<24 | int(header[1])<<16 | int(header[2])<<8 | int(header[3])
	typ := wire.Type(int(header[4])<<24 | int(header[5])<<16 | int(header[6])<<8 | int(header[7]))
	payload := make([]byte, size)
	if size > 0 {
		if _, err := readFull(s.reader, payload); err != nil {
			t.Fatalf("fakeServer.recv: reading payload: %v", err)
		}
	}
	pkt, err := wire.Parse(typ, payload)
	if err != nil {
		t.Fatalf("fakeServer.recv: parse: %v", err)
	}
	return pkt
}

func readFull(r *bufio.Reader, b []byte) (int, error) {
	n := 0
	for n < len(b) {
		m, err := r.Read(b[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

func dialPipe(t *testing.T) (*brlapi.Client, *fakeServer) {
	t.Helper()
	serverConn, clientConn := net.Pipe()
	client := brlapi.NewForTesting(clientConn)
	server := newFakeServer(serverConn)
	t.Cleanup(func() {
		client.Close()
		serverConn.Close()
		clientConn.Close()
	})
	return client, server
}

// runHandshake drives a newly-dialed pair through the default VERSION /
// AUTH_NONE / ACK handshake (scenario S1), returning once Connect has
// returned on the client side.
func runHandshake(t *testing.T, client *brlapi.Client, server *fakeServer) {
	t.Helper()
	errCh := make(chan error, 1)
	go func() { errCh <- client.ConnectPipe(context.Background()) }()

	server.send(&wire.Version{Version: wire.ProtocolVersion})
	if got := server.recv(t); got.Type() != wire.TypeVersion {
		t.Fatalf("client's handshake reply type = %s, want VERSION", got.Type())
	}
	server.send(&wire.ServerAuth{Method: wire.AuthNone})
	server.send(&wire.Ack{})

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Connect() error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Connect() did not return")
	}
}

func TestConnectS1AuthNone(t *testing.T) {
	client, server := dialPipe(t)
	runHandshake(t, client, server)
}

func TestConnectS2AuthKey(t *testing.T) {
	dir := t.TempDir()
	keyPath := filepath.Join(dir, "brlapi.key")
	if err := os.WriteFile(keyPath, []byte("nonsense\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	serverConn, clientConn := net.Pipe()
	client := brlapi.NewForTesting(clientConn, brlapi.WithAuthKeyPath(keyPath))
	server := newFakeServer(serverConn)
	t.Cleanup(func() {
		client.Close()
		serverConn.Close()
		clientConn.Close()
	})

	errCh := make(chan error, 1)
	go func() { errCh <- client.ConnectPipe(context.Background()) }()

	server.send(&wire.Version{Version: wire.ProtocolVersion})
	server.recv(t) // client's VERSION reply
	server.send(&wire.ServerAuth{Method: wire.AuthKey})

	auth := server.recv(t)
	ca, ok := auth.(*wire.ClientAuth)
	if !ok {
		t.Fatalf("client auth reply type = %T, want *wire.ClientAuth", auth)
	}
	if string(ca.Key) != "nonsense\n" {
		t.Errorf("ClientAuth.Key = %q, want %q", ca.Key, "nonsense\n")
	}
	server.send(&wire.Ack{})

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Connect() error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Connect() did not return")
	}
}

func TestGetDisplaySizeS3(t *testing.T) {
	client, server := dialPipe(t)
	runHandshake(t, client, server)

	resultCh := make(chan struct {
		cols, rows uint32
		err        error
	}, 1)
	go func() {
		cols, rows, err := client.GetDisplaySize(context.Background())
		resultCh <- struct {
			cols, rows uint32
			err        error
		}{cols, rows, err}
	}()

	req := server.recv(t)
	if req.Type() != wire.TypeGetDisplaySize {
		t.Fatalf("request type = %s, want GETDISPLAYSIZE", req.Type())
	}
	server.send(&wire.DisplaySizeInfo{Columns: 40, Rows: 1})

	select {
	case r := <-resultCh:
		if r.err != nil {
			t.Fatalf("GetDisplaySize() error: %v", r.err)
		}
		if r.cols != 40 || r.rows != 1 {
			t.Errorf("GetDisplaySize() = (%d, %d), want (40, 1)", r.cols, r.rows)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("GetDisplaySize() did not return")
	}
}

func TestWriteDotsS4(t *testing.T) {
	client, server := dialPipe(t)
	runHandshake(t, client, server)

	// Enter TTY mode first.
	enterCh := make(chan error, 1)
	go func() { enterCh <- client.EnterTTYMode(context.Background(), []int{1}, "") }()
	req := server.recv(t)
	ett, ok := req.(*wire.EnterTTYMode)
	if !ok {
		t.Fatalf("request type = %T, want *wire.EnterTTYMode", req)
	}
	if len(ett.TTYs) != 1 || ett.TTYs[0] != 1 {
		t.Fatalf("EnterTTYMode.TTYs = %v, want [1]", ett.TTYs)
	}
	server.send(&wire.Ack{})
	if err := <-enterCh; err != nil {
		t.Fatalf("EnterTTYMode() error: %v", err)
	}

	// Prime the display size so WriteDots does not need to fetch it.
	sizeCh := make(chan error, 1)
	go func() {
		_, _, err := client.GetDisplaySize(context.Background())
		sizeCh <- err
	}()
	server.recv(t)
	server.send(&wire.DisplaySizeInfo{Columns: 40, Rows: 1})
	if err := <-sizeCh; err != nil {
		t.Fatalf("GetDisplaySize() error: %v", err)
	}

	content := make([]byte, 40)
	for i := range content {
		content[i] = 0xff
	}
	// net.Pipe is unbuffered: the write only completes once the server
	// reads it, so WriteDots runs alongside server.recv.
	writeCh := make(chan error, 1)
	go func() { writeCh <- client.WriteDots(context.Background(), content) }()

	got := server.recv(t)
	if err := <-writeCh; err != nil {
		t.Fatalf("WriteDots() error: %v", err)
	}
	w, ok := got.(*wire.Write)
	if !ok {
		t.Fatalf("WriteDots sent %T, want *wire.Write", got)
	}
	wantFlags := wire.WFRegion | wire.WFText | wire.WFCursor | wire.WFAttrOr
	if w.Flags != wantFlags {
		t.Errorf("Write.Flags = %#x, want %#x", w.Flags, wantFlags)
	}
	if w.RegionBegin != 1 || w.RegionSize != 40 {
		t.Errorf("Write region = (%d, %d), want (1, 40)", w.RegionBegin, w.RegionSize)
	}
	for i, b := range w.Text {
		if b != ' ' {
			t.Fatalf("Write.Text[%d] = %q, want space", i, b)
		}
	}
	for i, b := range w.OrMask {
		if b != 0xff {
			t.Fatalf("Write.OrMask[%d] = %#x, want 0xff", i, b)
		}
	}
	if w.Cursor != 0 {
		t.Errorf("Write.Cursor = %d, want 0", w.Cursor)
	}
}

func TestReadKeyCallbackS5(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	received := make(chan brlapi.Key, 1)
	client := brlapi.NewForTesting(clientConn, brlapi.WithKeyCallback(func(k brlapi.Key) {
		received <- k
	}))
	server := newFakeServer(serverConn)
	t.Cleanup(func() {
		client.Close()
		serverConn.Close()
		clientConn.Close()
	})
	runHandshake(t, client, server)

	enterCh := make(chan error, 1)
	go func() { enterCh <- client.EnterTTYMode(context.Background(), []int{1}, "") }()
	server.recv(t)
	server.send(&wire.Ack{})
	if err := <-enterCh; err != nil {
		t.Fatalf("EnterTTYMode() error: %v", err)
	}

	server.send(&wire.Key{Code: 0x0000000020010008})

	select {
	case k := <-received:
		if k.Expanded.Command != 0x10000 || k.Expanded.Argument != 8 {
			t.Errorf("key callback got %+v, want command=ROUTE argument=8", k.Expanded)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("key callback never invoked")
	}
}

func TestReadKeyQueueS5(t *testing.T) {
	client, server := dialPipe(t)
	runHandshake(t, client, server)

	enterCh := make(chan error, 1)
	go func() { enterCh <- client.EnterTTYMode(context.Background(), []int{1}, "") }()
	server.recv(t)
	server.send(&wire.Ack{})
	if err := <-enterCh; err != nil {
		t.Fatalf("EnterTTYMode() error: %v", err)
	}

	server.send(&wire.Key{Code: 0x0000000020010008})

	resultCh := make(chan struct {
		key brlapi.Key
		ok  bool
		err error
	}, 1)
	go func() {
		k, ok, err := client.ReadKey(context.Background(), true)
		resultCh <- struct {
			key brlapi.Key
			ok  bool
			err error
		}{k, ok, err}
	}()

	select {
	case r := <-resultCh:
		if r.err != nil {
			t.Fatalf("ReadKey() error: %v", r.err)
		}
		if !r.ok {
			t.Fatalf("ReadKey() ok = false, want true")
		}
		if r.key.Code != 0x0000000020010008 {
			t.Errorf("ReadKey().Code = %#x, want %#x", r.key.Code, 0x0000000020010008)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ReadKey() did not return")
	}
}

func TestOversizedFrameS6(t *testing.T) {
	client, server := dialPipe(t)
	runHandshake(t, client, server)

	// Declare a payload of 5000 bytes, far exceeding MaxPacketSize.
	bad := make([]byte, 8)
	bad[0], bad[1], bad[2], bad[3] = 0, 0, 0x13, 0x88 // 5000
	server.conn.Write(bad)

	_, err := client.GetDriverName(context.Background())
	if err == nil {
		t.Fatal("GetDriverName() after oversized frame = nil error, want a closed/framing error")
	}
	var closedErr *wire.ClosedError
	var framingErr *wire.FramingError
	if !errors.As(err, &closedErr) && !errors.As(err, &framingErr) {
		t.Errorf("GetDriverName() error = %v (%T), want ClosedError or FramingError", err, err)
	}
}
