package uuid

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

const (
	// UUID_LENGTH is length of a UUID
	UUID_LENGTH = 16
	encodeUUID  = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"
)

var (
	// ids are url-safe so they can travel in websocket query strings
	_UUIDEncoding = base64.NewEncoding(encodeUUID).WithPadding(base64.NoPadding)

	counter   uint32
	machineID = readMachineID()
)

// GenUUID generates a new unique id: 4 bytes unix time, 3 bytes host, 2 bytes pid, 3 bytes counter
func GenUUID() string {
	var b [12]byte
	binary.BigEndian.PutUint32(b[:4], uint32(time.Now().Unix()))
	copy(b[4:7], machineID)
	pid := os.Getpid()
	b[7] = byte(pid >> 8)
	b[8] = byte(pid)
	i := atomic.AddUint32(&counter, 1)
	b[9] = byte(i >> 16)
	b[10] = byte(i >> 8)
	b[11] = byte(i)
	return _UUIDEncoding.EncodeToString(b[:])
}

// IsValid reports whether s has the shape of a GenUUID result
func IsValid(s string) bool {
	if len(s) != UUID_LENGTH {
		return false
	}
	_, err := _UUIDEncoding.DecodeString(s)
	return err == nil
}

// GenSecret returns n bytes from the system CSPRNG
func GenSecret(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, errors.Wrap(err, "read random bytes")
	}
	return b, nil
}

// GenToken returns a url-safe random token carrying n bytes of entropy
func GenToken(n int) (string, error) {
	b, err := GenSecret(n)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func readMachineID() []byte {
	id := make([]byte, 3)
	hostname, err := os.Hostname()
	if err != nil {
		if _, err := io.ReadFull(rand.Reader, id); err != nil {
			panic(errors.Wrap(err, "cannot get hostname or random machine id"))
		}
		return id
	}
	sum := md5.Sum([]byte(hostname))
	copy(id, sum[:])
	return id
}
