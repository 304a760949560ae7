package mcproto

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Reader parses classic Memcached text protocol requests.
type Reader struct {
	br *bufio.Reader
}

// NewReader wraps r as a mcproto.Reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReader(r)}
}

// ReadCommand reads and parses one command line, and for storage commands
// also reads the following data block.
func (r *Reader) ReadCommand() (*Command, error) {
	line, err := r.readLine()
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, fmt.Errorf("mcproto: empty command line")
	}

	name := CmdName(strings.ToLower(fields[0]))
	cmd := &Command{Name: name}

	switch name {
	case CmdSet, CmdAdd, CmdReplace, CmdAppend, CmdPrepend:
		if len(fields) < 5 {
			return nil, fmt.Errorf("mcproto: malformed %s line", name)
		}
		cmd.Key = fields[1]
		cmd.Flags = parseUint32(fields[2])
		cmd.ExptimeSeconds = parseInt64(fields[3])
		cmd.Bytes = int(parseInt64(fields[4]))
		cmd.NoReply = len(fields) > 5 && fields[5] == "noreply"
		if err := r.readDataBlock(cmd); err != nil {
			return nil, err
		}

	case CmdCas:
		if len(fields) < 6 {
			return nil, fmt.Errorf("mcproto: malformed cas line")
		}
		cmd.Key = fields[1]
		cmd.Flags = parseUint32(fields[2])
		cmd.ExptimeSeconds = parseInt64(fields[3])
		cmd.Bytes = int(parseInt64(fields[4]))
		cmd.CasUnique = parseUint64(fields[5])
		cmd.NoReply = len(fields) > 6 && fields[6] == "noreply"
		if err := r.readDataBlock(cmd); err != nil {
			return nil, err
		}

	case CmdGet, CmdGets:
		if len(fields) < 2 {
			return nil, fmt.Errorf("mcproto: malformed %s line", name)
		}
		cmd.Keys = fields[1:]
		cmd.Key = fields[1]

	case CmdDelete:
		if len(fields) < 2 {
			return nil, fmt.Errorf("mcproto: malformed delete line")
		}
		cmd.Key = fields[1]
		cmd.NoReply = len(fields) > 2 && fields[len(fields)-1] == "noreply"

	case CmdIncr, CmdDecr:
		if len(fields) < 3 {
			return nil, fmt.Errorf("mcproto: malformed %s line", name)
		}
		cmd.Key = fields[1]
		cmd.Delta = parseUint64(fields[2])
		cmd.NoReply = len(fields) > 3 && fields[3] == "noreply"

	case CmdTouch:
		if len(fields) < 3 {
			return nil, fmt.Errorf("mcproto: malformed touch line")
		}
		cmd.Key = fields[1]
		cmd.ExptimeSeconds = parseInt64(fields[2])
		cmd.NoReply = len(fields) > 3 && fields[3] == "noreply"

	case CmdFlushAll:
		cmd.NoReply = len(fields) > 1 && fields[len(fields)-1] == "noreply"

	case CmdVersion, CmdQuit:
		// no arguments

	default:
		return nil, fmt.Errorf("mcproto: unknown command %q", fields[0])
	}

	return cmd, nil
}

func (r *Reader) readDataBlock(cmd *Command) error {
	data := make([]byte, cmd.Bytes)
	if _, err := io.ReadFull(r.br, data); err != nil {
		return err
	}
	cmd.Data = data
	// consume the trailing CRLF after the data block
	if _, err := r.readLine(); err != nil {
		return err
	}
	return nil
}

func (r *Reader) readLine() (string, error) {
	line, err := r.br.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func parseInt64(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

func parseUint32(s string) uint32 {
	n, _ := strconv.ParseUint(s, 10, 32)
	return uint32(n)
}

func parseUint64(s string) uint64 {
	n, _ := strconv.ParseUint(s, 10, 64)
	return n
}
