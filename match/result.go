package match

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/rotisserie/eris"
)

type Status string

const (
	StatusPlayer1   Status = "PLAYER1"
	StatusPlayer2   Status = "PLAYER2"
	StatusTie       Status = "TIE"
	StatusUndefined Status = "UNDEFINED"
)

func statusFor(scores [2]int64) Status {
	switch {
	case scores[0] > scores[1]:
		return StatusPlayer1
	case scores[1] > scores[0]:
		return StatusPlayer2
	default:
		return StatusTie
	}
}

// Result is the outcome of a match. Logs are only present for matches that
// ran every tick.
type Result struct {
	MatchID    string    `json:"matchId"`
	Status     Status    `json:"status"`
	Scores     [2]int64  `json:"scores"`
	Ticks      uint64    `json:"ticks"`
	GameLog    []byte    `json:"gameLog,omitempty"`
	PlayerLogs [2][]byte `json:"playerLogs"`
	FinishedAt time.Time `json:"finishedAt"`
}

// String renders the results line: both scores followed by the status.
func (r *Result) String() string {
	return fmt.Sprintf("%d %d %s", r.Scores[0], r.Scores[1], r.Status)
}

// Artifacts are the gzipped logs of a result.
type Artifacts struct {
	GameLog    []byte
	PlayerLogs [2][]byte
}

// Compress gzips the game log and both player logs.
func (r *Result) Compress() (*Artifacts, error) {
	var (
		a   Artifacts
		err error
	)
	if a.GameLog, err = gzipBytes(r.GameLog); err != nil {
		return nil, eris.Wrap(err, "compressing game log")
	}
	for i, log := range r.PlayerLogs {
		if a.PlayerLogs[i], err = gzipBytes(log); err != nil {
			return nil, eris.Wrapf(err, "compressing player %d log", i+1)
		}
	}
	return &a, nil
}

func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decompress reverses Compress for one artifact.
func Decompress(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, eris.Wrap(err, "opening gzip stream")
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, eris.Wrap(err, "reading gzip stream")
	}
	return out, nil
}
