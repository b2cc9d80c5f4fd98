package x11

import (
	"fmt"
	"os"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"

	"github.com/casement-dev/casement/internal/host"
)

// Options selects which X server to talk to. Zero values fall back to the
// DISPLAY and XAUTHORITY environment.
type Options struct {
	Display    string
	XAuthority string
}

// Backend drives an X11 window manager through EWMH and RandR.
type Backend struct {
	xu      *xgbutil.XUtil
	root    xproto.Window
	display string
}

var _ host.Backend = (*Backend)(nil)

// New connects to the X server and initializes the RandR extension.
func New(opts Options) (*Backend, error) {
	if opts.XAuthority != "" {
		// xgb reads the auth file from the environment.
		os.Setenv("XAUTHORITY", opts.XAuthority)
	}

	var (
		xu  *xgbutil.XUtil
		err error
	)
	if opts.Display != "" {
		xu, err = xgbutil.NewConnDisplay(opts.Display)
	} else {
		xu, err = xgbutil.NewConn()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}

	if err := randr.Init(xu.Conn()); err != nil {
		xu.Conn().Close()
		return nil, fmt.Errorf("randr init failed: %w", err)
	}

	return &Backend{
		xu:      xu,
		root:    xu.RootWin(),
		display: opts.Display,
	}, nil
}

// Close disconnects from the X server.
func (b *Backend) Close() error {
	b.xu.Conn().Close()
	return nil
}

const sourceIndication = 2 // pager/direct action

// clientMessage sends an EWMH client message to the root window. We build
// the message manually because the xgbutil ewmh request helpers panic on
// this library version (uint vs int type assertion).
func (b *Backend) clientMessage(win xproto.Window, atomName string, data ...uint32) error {
	atomReply, err := xproto.InternAtom(b.xu.Conn(), false,
		uint16(len(atomName)), atomName).Reply()
	if err != nil {
		return fmt.Errorf("failed to intern %s: %w", atomName, err)
	}

	var payload [5]uint32
	copy(payload[:], data)
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: win,
		Type:   atomReply.Atom,
		Data:   xproto.ClientMessageDataUnionData32New(payload[:]),
	}

	return xproto.SendEventChecked(
		b.xu.Conn(),
		false,
		b.root,
		xproto.EventMaskSubstructureRedirect|xproto.EventMaskSubstructureNotify,
		string(ev.Bytes()),
	).Check()
}
