package ipc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"net"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEnvelopeFraming(t *testing.T) {
	var buf bytes.Buffer
	env, err := NewEnvelope(TypeSetDifficulty, SetDifficultyMessage{Difficulty: "hard"})
	if err != nil {
		t.Fatal(err)
	}
	if err := WriteEnvelope(&buf, env); err != nil {
		t.Fatalf("WriteEnvelope: %v", err)
	}
	if got := binary.LittleEndian.Uint32(buf.Bytes()[:4]); int(got) != buf.Len()-4 {
		t.Errorf("length prefix %d, payload %d", got, buf.Len()-4)
	}

	read, err := ReadEnvelope(&buf)
	if err != nil {
		t.Fatalf("ReadEnvelope: %v", err)
	}
	var msg SetDifficultyMessage
	if err := read.Decode(&msg); err != nil {
		t.Fatal(err)
	}
	if read.Type != TypeSetDifficulty || msg.Difficulty != "hard" {
		t.Errorf("read back %s %+v", read.Type, msg)
	}
}

func TestReadEnvelopeRejectsBadFrames(t *testing.T) {
	tests := []struct {
		name  string
		frame []byte
		want  string
	}{
		{"zero length", []byte{0, 0, 0, 0}, "invalid message length"},
		{"oversized", binary.LittleEndian.AppendUint32(nil, MaxFrame+1), "invalid message length"},
		{"truncated", append(binary.LittleEndian.AppendUint32(nil, 10), '{'), "read payload"},
		{"not json", append(binary.LittleEndian.AppendUint32(nil, 3), "abc"...), "unmarshal envelope"},
		{"short prefix", []byte{1, 0}, "read length"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadEnvelope(bytes.NewReader(tt.frame))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestConnectionReadLoop(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	c := NewConnection(server, nil)
	c.RegisterHandler(TypeSetDifficulty, func(env Envelope) (*Envelope, error) {
		var msg SetDifficultyMessage
		if err := env.Decode(&msg); err != nil {
			return nil, err
		}
		if msg.Difficulty == "" {
			return nil, errors.New("difficulty required")
		}
		ack, err := NewEnvelope(TypeAck, AckMessage{Status: msg.Difficulty})
		return &ack, err
	})
	done := make(chan struct{})
	go func() {
		c.ReadLoop()
		close(done)
	}()

	exchange := func(msgType string, data any) Envelope {
		t.Helper()
		env, err := NewEnvelope(msgType, data)
		if err != nil {
			t.Fatal(err)
		}
		if err := WriteEnvelope(client, env); err != nil {
			t.Fatalf("write %s: %v", msgType, err)
		}
		resp, err := ReadEnvelope(client)
		if err != nil {
			t.Fatalf("read reply to %s: %v", msgType, err)
		}
		return resp
	}

	resp := exchange(TypeSetDifficulty, SetDifficultyMessage{Difficulty: "easy"})
	var ack AckMessage
	resp.Decode(&ack)
	if resp.Type != TypeAck || ack.Status != "easy" {
		t.Errorf("reply = %s %+v", resp.Type, ack)
	}

	tests := []struct {
		msgType string
		data    any
		want    ErrorMessage
	}{
		{TypeSetDifficulty, SetDifficultyMessage{}, ErrorMessage{Type: TypeSetDifficulty, Error: "difficulty required"}},
		{"bogus", struct{}{}, ErrorMessage{Type: "bogus", Error: "unknown message type"}},
	}
	for _, tt := range tests {
		resp := exchange(tt.msgType, tt.data)
		var got ErrorMessage
		resp.Decode(&got)
		if resp.Type != TypeError {
			t.Errorf("%s: reply type %s", tt.msgType, resp.Type)
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("%s: error reply (-want +got):\n%s", tt.msgType, diff)
		}
	}

	client.Close()
	<-done
}
