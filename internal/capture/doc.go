// Package capture models x11grab input sources and queries the X11 session
// for displays and windows. Queries shell out to the standard X11 tools
// (xdpyinfo, xrandr, wmctrl, xdotool) and parse their text output; nothing
// here touches the display server directly.
package capture
