package ping

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.craftchat.dev/craftchat/pkg/chat"
	"go.craftchat.dev/craftchat/pkg/proto"
	"go.craftchat.dev/craftchat/pkg/proto/codec"
	"go.craftchat.dev/craftchat/pkg/proto/packet"
	"go.craftchat.dev/craftchat/pkg/proto/state"
	"go.craftchat.dev/craftchat/pkg/proto/util"
	"go.craftchat.dev/craftchat/pkg/proto/version"
)

func TestPing(t *testing.T) {
	status := &ServerPing{
		Version: Version{
			Protocol: version.Minecraft_1_21_4.Protocol,
			Name:     "1.21.4",
		},
		Players:     &Players{Online: 3, Max: 20},
		Description: &chat.Component{Text: "A Minecraft Server"},
	}
	statusJSON, err := json.Marshal(status)
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = ln.Close() }()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer func() { _ = conn.Close() }()

		enc := codec.NewEncoder(conn, proto.ClientBound, logr.Discard())
		dec := codec.NewDecoder(conn, proto.ServerBound, logr.Discard())

		pc, err := dec.Decode()
		if err != nil {
			return
		}
		handshake, ok := pc.Packet.(*packet.Handshake)
		if !ok || handshake.NextStatus != packet.StatusIntent {
			return
		}
		protocol := proto.Protocol(handshake.ProtocolVersion)
		enc.SetState(state.Status)
		dec.SetState(state.Status)
		enc.SetProtocol(protocol)
		dec.SetProtocol(protocol)

		if _, err = dec.Decode(); err != nil { // status request
			return
		}
		if _, err = enc.WritePacket(&packet.StatusResponse{Status: string(statusJSON)}); err != nil {
			return
		}
		pc, err = dec.Decode()
		if err != nil {
			return
		}
		ping, ok := pc.Packet.(*packet.StatusPing)
		if !ok {
			return
		}
		_, _ = enc.WritePacket(ping)
	}()

	port := uint16(ln.Addr().(*net.TCPAddr).Port)
	p := &Pinger{Protocol: version.Minecraft_1_21_4.Protocol}
	pong, latency, err := p.Ping(context.Background(), "127.0.0.1", port)
	require.NoError(t, err)

	assert.Equal(t, status.Version, pong.Version)
	assert.Equal(t, status.Players, pong.Players)
	assert.Equal(t, "A Minecraft Server", chat.Plain(pong.Description))
	assert.Greater(t, latency, time.Duration(0))
}

func TestPingLegacy(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = ln.Close() }()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer func() { _ = conn.Close() }()

		// 0xFE 0x01 0xFA is enough to know it is the 1.6 era ping
		header := make([]byte, 3)
		if _, err = conn.Read(header); err != nil {
			return
		}
		if err = util.WriteByte(conn, 0xFF); err != nil {
			return
		}
		_ = util.WriteUTF16BE(conn, "§1\x00127\x001.21.4\x00A Motd\x003\x0020")
	}()

	port := uint16(ln.Addr().(*net.TCPAddr).Port)
	p := &Pinger{}
	pong, err := p.PingLegacy(context.Background(), "127.0.0.1", port)
	require.NoError(t, err)

	assert.Equal(t, &LegacyPong{
		ProtocolVersion: 127,
		ServerVersion:   "1.21.4",
		MOTD:            "A Motd",
		OnlinePlayers:   3,
		MaxPlayers:      20,
	}, pong)
}

func TestParseLegacyPong(t *testing.T) {
	for _, tc := range []struct {
		name    string
		input   string
		want    *LegacyPong
		wantErr bool
	}{
		{
			name:  "valid",
			input: "§1\x00127\x001.21.4\x00A Minecraft Server\x005\x0020",
			want: &LegacyPong{
				ProtocolVersion: 127,
				ServerVersion:   "1.21.4",
				MOTD:            "A Minecraft Server",
				OnlinePlayers:   5,
				MaxPlayers:      20,
			},
		},
		{name: "missing prefix", input: "127\x001.21.4\x00m\x001\x002", wantErr: true},
		{name: "too few fields", input: "§1\x00127\x001.21.4\x00m\x001", wantErr: true},
		{name: "non-numeric protocol", input: "§1\x00abc\x001.21.4\x00m\x001\x002", wantErr: true},
		{name: "non-numeric players", input: "§1\x00127\x001.21.4\x00m\x00x\x002", wantErr: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseLegacyPong(tc.input)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseSRVData(t *testing.T) {
	record, err := parseSRVData("10 5 25566 mc.example.com.")
	require.NoError(t, err)
	assert.Equal(t, SRV{
		Priority: 10,
		Weight:   5,
		Port:     25566,
		Target:   "mc.example.com",
	}, record)

	_, err = parseSRVData("10 5 25566")
	assert.Error(t, err)
	_, err = parseSRVData("x 5 25566 mc.example.com.")
	assert.Error(t, err)
	_, err = parseSRVData("10 5 70000 mc.example.com.")
	assert.Error(t, err, "port must fit in 16 bits")
}

func TestResolver(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "_minecraft._tcp.play.example.com", r.URL.Query().Get("name"))
		assert.Equal(t, "SRV", r.URL.Query().Get("type"))
		assert.Equal(t, "application/dns-json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`{
			"Status": 0,
			"Answer": [
				{"type": 33, "data": "10 5 25565 backup.example.com."},
				{"type": 33, "data": "5 1 25566 low.example.com."},
				{"type": 33, "data": "5 9 25567 main.example.com."},
				{"type": 16, "data": "some txt record"}
			]
		}`))
	}))
	defer srv.Close()

	r := &Resolver{Endpoints: []string{srv.URL}}
	host, port := r.Resolve(context.Background(), "play.example.com", 25565)
	// lowest priority wins, then highest weight
	assert.Equal(t, "main.example.com", host)
	assert.Equal(t, uint16(25567), port)
}

func TestResolver_NoRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Status": 3}`)) // NXDOMAIN
	}))
	defer srv.Close()

	r := &Resolver{Endpoints: []string{srv.URL}}
	host, port := r.Resolve(context.Background(), "example.com", 25565)
	assert.Equal(t, "example.com", host)
	assert.Equal(t, uint16(25565), port)
}

func TestResolver_EndpointFailover(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer broken.Close()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Status": 0, "Answer": [{"type": 33, "data": "0 0 25570 mc.example.com."}]}`))
	}))
	defer good.Close()

	r := &Resolver{Endpoints: []string{broken.URL, good.URL}}
	host, port := r.Resolve(context.Background(), "example.com", 25565)
	assert.Equal(t, "mc.example.com", host)
	assert.Equal(t, uint16(25570), port)
}

func TestServerPing_UnmarshalJSON(t *testing.T) {
	t.Run("component description", func(t *testing.T) {
		var p ServerPing
		require.NoError(t, json.Unmarshal([]byte(`{
			"version": {"name": "1.21.4", "protocol": 769},
			"players": {"online": 1, "max": 10, "sample": [{"name": "Notch", "id": "069a79f4-44e9-4726-a5be-fca90e38aaf5"}]},
			"description": {"text": "Hello ", "extra": [{"text": "world", "color": "red"}]},
			"favicon": "data:image/png;base64,AAAA"
		}`), &p))
		assert.Equal(t, "1.21.4", p.Version.Name)
		assert.Equal(t, proto.Protocol(769), p.Version.Protocol)
		require.NotNil(t, p.Players)
		assert.Equal(t, 1, p.Players.Online)
		require.Len(t, p.Players.Sample, 1)
		assert.Equal(t, "Notch", p.Players.Sample[0].Name)
		assert.Equal(t, "Hello world", chat.Plain(p.Description))
		assert.Equal(t, "data:image/png;base64,AAAA", p.Favicon)
	})

	t.Run("string description", func(t *testing.T) {
		var p ServerPing
		require.NoError(t, json.Unmarshal([]byte(`{"description": "just text"}`), &p))
		assert.Equal(t, "just text", chat.Plain(p.Description))
	})

	t.Run("null description", func(t *testing.T) {
		var p ServerPing
		require.NoError(t, json.Unmarshal([]byte(`{"description": null}`), &p))
		require.NotNil(t, p.Description)
		assert.Empty(t, chat.Plain(p.Description))
	})

	t.Run("missing description", func(t *testing.T) {
		var p ServerPing
		require.NoError(t, json.Unmarshal([]byte(`{"version": {"name": "x"}}`), &p))
		require.NotNil(t, p.Description)
	})
}
