package testutil

import (
	"fmt"
	"strings"
)

// DumpBuilder assembles thread dump text for tests.
type DumpBuilder struct {
	sb strings.Builder
}

// NewDumpBuilder creates an empty builder.
func NewDumpBuilder() *DumpBuilder {
	return &DumpBuilder{}
}

// Header appends a header chunk.
func (b *DumpBuilder) Header(date string) *DumpBuilder {
	fmt.Fprintf(&b.sb, "%s\nFull thread dump Test VM:\n\n", date)
	return b
}

// Thread appends a thread chunk. An empty state writes no state line.
// Lines are written verbatim after the state line.
func (b *DumpBuilder) Thread(name, state string, lines ...string) *DumpBuilder {
	fmt.Fprintf(&b.sb, "%q #1 prio=5\n", name)
	if state != "" {
		fmt.Fprintf(&b.sb, "   java.lang.Thread.State: %s\n", state)
	}
	for _, l := range lines {
		fmt.Fprintf(&b.sb, "\t%s\n", l)
	}
	b.sb.WriteString("\n")
	return b
}

// SystemThread appends a one-line chunk.
func (b *DumpBuilder) SystemThread(info string) *DumpBuilder {
	fmt.Fprintf(&b.sb, "%s\n\n", info)
	return b
}

// String returns the dump text.
func (b *DumpBuilder) String() string {
	return b.sb.String()
}

// At formats a method frame line.
func At(method string) string {
	return "at " + method
}

// Locked formats an owner frame line.
func Locked(id string) string {
	return fmt.Sprintf("- locked <%s> (a java.lang.Object)", id)
}

// WaitingToLock formats a waiter frame line.
func WaitingToLock(id string) string {
	return fmt.Sprintf("- waiting to lock <%s> (a java.lang.Object)", id)
}

// ParkingFor formats a parked waiter frame line.
func ParkingFor(id string) string {
	return fmt.Sprintf("- parking to wait for  <%s> (a java.util.concurrent.locks.ReentrantLock$NonfairSync)", id)
}
