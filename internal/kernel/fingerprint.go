package kernel

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// DomainKernel prefixes kernel fingerprints. The version suffix allows the
// encoding to change without colliding with old fingerprints.
const DomainKernel = "loopnest/kernel/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

type fingerprintDoc struct {
	Name           string              `json:"name"`
	Domains        []string            `json:"domains"`
	Assumptions    string              `json:"assumptions"`
	Instructions   []fingerprintInsn   `json:"instructions"`
	Schedule       []string            `json:"schedule"`
	Tags           map[string]string   `json:"tags"`
	SlabIncrements map[string][2]int64 `json:"slab_increments"`
	IndexBits      int                 `json:"index_bits"`
}

type fingerprintInsn struct {
	ID     string   `json:"id"`
	Inames []string `json:"inames"`
}

// Fingerprint identifies the kernel's content: two kernels with equal
// fingerprints lower to the same code. Strings are NFC normalized before
// hashing.
func (k *Kernel) Fingerprint() (string, error) {
	nfc := norm.NFC.String
	doc := fingerprintDoc{
		Name:           nfc(k.name),
		Assumptions:    nfc(k.assumptions.String()),
		Tags:           make(map[string]string, len(k.tags)),
		SlabIncrements: make(map[string][2]int64, len(k.slabIncrements)),
		IndexBits:      k.indexBits,
	}
	for _, d := range k.domains {
		doc.Domains = append(doc.Domains, nfc(d.String()))
	}
	for _, insn := range k.instructions {
		fi := fingerprintInsn{ID: nfc(insn.ID)}
		for _, n := range insn.Inames {
			fi.Inames = append(fi.Inames, nfc(n))
		}
		doc.Instructions = append(doc.Instructions, fi)
	}
	for _, it := range k.schedule {
		doc.Schedule = append(doc.Schedule, nfc(it.String()))
	}
	for name, tag := range k.tags {
		doc.Tags[nfc(name)] = tag.String()
	}
	for name, inc := range k.slabIncrements {
		doc.SlabIncrements[nfc(name)] = [2]int64{inc.Lower, inc.Upper}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return "", fmt.Errorf("fingerprint %q: %w", k.name, err)
	}
	return hashWithDomain(DomainKernel, bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}
