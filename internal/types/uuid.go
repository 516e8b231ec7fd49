package types

import (
	"fmt"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/teris-io/shortid"
)

// GenerateUUID returns a k-sortable unique identifier
func GenerateUUID() string {
	return ulid.Make().String()
}

// GenerateUUIDWithPrefix returns a k-sortable unique identifier
// with a prefix ex mbr_01HZX3M6T6T2W9K6VQ2C5B1N7E
func GenerateUUIDWithPrefix(prefix string) string {
	if prefix == "" {
		return GenerateUUID()
	}
	return fmt.Sprintf("%s_%s", prefix, GenerateUUID())
}

var (
	sidGenerator *shortid.Shortid
	once         sync.Once
)

// initializeSID initializes the shortid generator once
func initializeSID() {
	var err error
	sidGenerator, err = shortid.New(1, shortid.DefaultABC, 2342)
	if err != nil {
		panic("failed to initialize shortid generator: " + err.Error())
	}
}

// GenerateShortIDWithPrefix returns a short ID with a prefix.
// Total length is capped at 12 characters, e.g., `RCP-XYZ12A8Q`.
func GenerateShortIDWithPrefix(prefix string) string {
	once.Do(initializeSID)

	id, err := sidGenerator.Generate()
	if err != nil {
		return ""
	}
	id = strings.ReplaceAll(id, "-", "")

	availableLen := 12 - len(prefix)
	if availableLen <= 0 {
		return ""
	}

	if len(id) > availableLen {
		id = id[:availableLen]
	}

	return strings.ToUpper(fmt.Sprintf("%s%s", prefix, id))
}

const (
	// Prefixes for all domains and entities

	UUID_PREFIX_MEMBER             = "mem"
	UUID_PREFIX_MEMBERSHIP         = "mbr"
	UUID_PREFIX_MEMBERSHIP_CHANGE  = "mchg"
	UUID_PREFIX_PACKAGE            = "pkg"
	UUID_PREFIX_COMMISSION_RULE    = "crule"
	UUID_PREFIX_TRAINER_EARNING    = "earn"
	UUID_PREFIX_PAYMENT            = "pay"
	UUID_PREFIX_PAYMENT_PLAN       = "plan"
	UUID_PREFIX_INSTALLMENT        = "inst"
	UUID_PREFIX_CREDIT_TRANSACTION = "ctxn"
	UUID_PREFIX_SESSION            = "sess"
	UUID_PREFIX_LIFECYCLE_EVENT    = "evt"
)

const (
	SHORT_ID_PREFIX_RECEIPT = "RCP-"
)
