// envelope.go: soft-expiry envelope wrapping and round-trip codec
//
// Copyright (c) 2025 Cachevane contributors
// Series: an AGILira-style library
// SPDX-License-Identifier: MPL-2.0

package cachevane

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"time"
)

// envelopeMagic tags engine-written payloads so tryDecodeEnvelope can
// distinguish them from plain (pre-SWR, non-enveloped) payloads without
// ambiguity. The inner value is encoded by the caller-selected
// Serializer; only the wrapper itself (magic + timestamp) has a fixed
// layout, keeping the envelope format independent of which Serializer
// is wired in.
var envelopeMagic = [4]byte{'c', 'v', 'n', '1'}

const envelopeHeaderLen = len(envelopeMagic) + 8 // magic + int64 unix-nano

// JSONSerializer is the default Serializer, backed by encoding/json.
// Supplemental: a pluggable Serializer was always part of the engine's
// external-collaborator contract; JSONSerializer is provided so callers
// don't have to write one for the common case.
type JSONSerializer struct{}

func (JSONSerializer) Encode(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONSerializer) Decode(data []byte, out interface{}) error {
	return json.Unmarshal(data, out)
}

// encodeEnvelope serializes value with ser and wraps it with softExpire
// metadata. The result is always engine-controlled output: a fixed
// 4-byte magic, an 8-byte big-endian Unix-nanosecond timestamp, then the
// serializer's encoding of value.
func encodeEnvelope(ser Serializer, value interface{}, softExpire time.Time) ([]byte, error) {
	valueBytes, err := ser.Encode(value)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, envelopeHeaderLen+len(valueBytes))
	out = append(out, envelopeMagic[:]...)
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(softExpire.UnixNano()))
	out = append(out, ts[:]...)
	out = append(out, valueBytes...)
	return out, nil
}

// tryDecodeEnvelope reports whether data carries the envelope tag and,
// if so, returns the wrapped soft-expiry timestamp and the still-encoded
// inner value bytes (the caller decodes those with the same Serializer
// used to write them). A miss here is not an error: the engine falls
// back to decodePlain for payloads written without stale-while-revalidate
// metadata.
func tryDecodeEnvelope(data []byte) (valueBytes []byte, softExpireUTC time.Time, ok bool) {
	if len(data) < envelopeHeaderLen || !bytes.Equal(data[:len(envelopeMagic)], envelopeMagic[:]) {
		return nil, time.Time{}, false
	}
	ns := binary.BigEndian.Uint64(data[len(envelopeMagic):envelopeHeaderLen])
	return data[envelopeHeaderLen:], time.Unix(0, int64(ns)).UTC(), true
}

// decodePlain decodes data directly with ser, for back-compatibility
// with payloads written before envelope wrapping was adopted, or by a
// policy-less write.
func decodePlain(ser Serializer, data []byte, out interface{}) error {
	return ser.Decode(data, out)
}
