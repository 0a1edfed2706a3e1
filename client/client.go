package client

import (
	"bufio"
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"github.com/Kulezi/SK-Screen-Worms/wire"
)

// Client is a headless screen-worms client: it maintains one UDP session
// with a server and one TCP connection to a GUI, translating between the
// binary wire protocol and the GUI's line-oriented text protocol. Like
// Server, all mutable state is owned by the single goroutine running
// Run; two small reader goroutines only ever forward bytes over
// channels.
type Client struct {
	cfg       Config
	sessionID uint64

	conn *net.UDPConn
	gui  *net.TCPConn

	guiWriter *bufio.Writer
	ingestor  *Ingestor
	turn      turnState

	incoming chan []byte
	guiLines chan string
	stopped  chan struct{}
	stopOnce sync.Once

	logger *log.Logger
}

// NewClient resolves the server address, opens the UDP session socket
// and the GUI TCP connection, and returns a ready-to-run Client.
func NewClient(cfg Config, logger *log.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	serverAddr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(cfg.ServerHost, portString(cfg.ServerPort)))
	if err != nil {
		return nil, fmt.Errorf("client: resolve server address: %w", err)
	}
	conn, err := net.DialUDP("udp", nil, serverAddr)
	if err != nil {
		return nil, fmt.Errorf("client: dial server: %w", err)
	}

	gui, err := DialGUI(cfg.GUIHost, cfg.GUIPort)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("client: dial gui: %w", err)
	}

	return &Client{
		cfg:       cfg,
		sessionID: NewSessionID(time.Now()),
		conn:      conn,
		gui:       gui,
		guiWriter: bufio.NewWriter(gui),
		ingestor:  NewIngestor(),
		incoming:  make(chan []byte, 64),
		guiLines:  make(chan string, 64),
		stopped:   make(chan struct{}),
		logger:    logger,
	}, nil
}

// Stop requests that Run return.
func (c *Client) Stop() {
	c.stopOnce.Do(func() { close(c.stopped) })
}

func (c *Client) readServerLoop() {
	buf := make([]byte, wire.MaxDatagramSize)
	for {
		n, err := c.conn.Read(buf)
		if err != nil {
			select {
			case <-c.stopped:
			default:
				c.logger.Printf("client: server read error: %v", err)
				c.Stop()
			}
			return
		}
		data := make([]byte, n)
		copy(data, buf[:n])
		select {
		case c.incoming <- data:
		case <-c.stopped:
			return
		}
	}
}

func (c *Client) readGUILoop() {
	scanner := bufio.NewScanner(c.gui)
	for scanner.Scan() {
		line := scanner.Text()
		select {
		case c.guiLines <- line:
		case <-c.stopped:
			return
		}
	}
	c.Stop()
}

// Run is the client's event loop: incoming server datagrams update the
// game view and are forwarded to the GUI; incoming GUI key lines update
// the reported turn intent; a fixed-interval ticker reports that intent
// (and the client's next expected event number) back to the server. Run
// returns nil once Stop is called, or a non-nil error on a fatal
// protocol violation from the server.
func (c *Client) Run() error {
	go c.readServerLoop()
	go c.readGUILoop()
	defer c.conn.Close()
	defer c.gui.Close()

	ticker := time.NewTicker(MoveInterval)
	defer ticker.Stop()

	for {
		select {
		case data := <-c.incoming:
			if err := c.ingestor.Ingest(data, c.sendToGUI); err != nil {
				c.Stop()
				return err
			}

		case line := <-c.guiLines:
			c.turn.applyGUILine(line)

		case <-ticker.C:
			c.sendMove()

		case <-c.stopped:
			return nil
		}
	}
}

func (c *Client) sendMove() {
	msg := wire.ClientMessage{
		SessionID:     c.sessionID,
		TurnDirection: c.turn.direction(),
		NextEventNo:   c.ingestor.NextEventNo(),
		PlayerName:    c.cfg.PlayerName,
	}
	// Best-effort: a dropped move datagram is recovered by the next
	// tick's report, so write errors aren't propagated.
	c.conn.Write(wire.EncodeClientMessage(msg))
}

func (c *Client) sendToGUI(line string) {
	c.guiWriter.WriteString(line)
	c.guiWriter.WriteByte('\n')
	c.guiWriter.Flush()
}

func portString(port int) string {
	return fmt.Sprintf("%d", port)
}
