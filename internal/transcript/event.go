// Package transcript classifies the lines of a shell session transcript
// (`$ cd`, `$ ls` and the listing output between them) into typed events.
package transcript

import "fmt"

// Sentinel `cd` targets.
const (
	RootTarget   = "/"
	ParentTarget = ".."
)

// Kind identifies what a transcript line represents.
type Kind uint8

const (
	EventNavigate Kind = iota // $ cd <target>
	EventList                 // $ ls
	EventDir                  // dir <name>
	EventFile                 // <size> <name>
)

func (k Kind) String() string {
	switch k {
	case EventNavigate:
		return "cd"
	case EventList:
		return "ls"
	case EventDir:
		return "dir"
	case EventFile:
		return "file"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Event is one classified transcript line.
// Target is set for EventNavigate, Name for EventDir and EventFile,
// Size for EventFile only.
type Event struct {
	Kind   Kind
	Target string
	Name   string
	Size   uint64
}

// Navigate returns a cd event.
func Navigate(target string) Event { return Event{Kind: EventNavigate, Target: target} }

// List returns an ls event.
func List() Event { return Event{Kind: EventList} }

// Dir returns a directory listing entry.
func Dir(name string) Event { return Event{Kind: EventDir, Name: name} }

// File returns a file listing entry.
func File(size uint64, name string) Event { return Event{Kind: EventFile, Name: name, Size: size} }

// IsEntry reports whether the event is listing output rather than a command.
func (e Event) IsEntry() bool {
	return e.Kind == EventDir || e.Kind == EventFile
}

// String renders the event back in transcript form.
func (e Event) String() string {
	switch e.Kind {
	case EventNavigate:
		return "$ cd " + e.Target
	case EventList:
		return "$ ls"
	case EventDir:
		return "dir " + e.Name
	case EventFile:
		return fmt.Sprintf("%d %s", e.Size, e.Name)
	default:
		return e.Kind.String()
	}
}
