// Package tray provides system tray functionality using getlantern/systray.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
	"github.com/sirupsen/logrus"
)

// MenuItem represents a menu item
type MenuItem struct {
	ID       int
	Title    string
	Checkbox bool
	Checked  bool
	Callback func()
	item     *systray.MenuItem
}

// Tray manages the system tray icon and menu
type Tray struct {
	mu      sync.Mutex
	title   string
	tooltip string
	items   []*MenuItem
	quitCh  chan struct{}
	log     *logrus.Entry
}

// New creates a new system tray
func New(title, tooltip string) *Tray {
	return &Tray{
		title:   title,
		tooltip: tooltip,
		quitCh:  make(chan struct{}),
		log:     logrus.WithField("component", "tray"),
	}
}

// AddMenuItem adds a menu item to the tray. Must be called before Run.
func (t *Tray) AddMenuItem(title string, callback func()) int {
	return t.add(&MenuItem{Title: title, Callback: callback})
}

// AddCheckbox adds a checkable menu item. The callback receives the new state.
func (t *Tray) AddCheckbox(title string, checked bool, callback func(checked bool)) int {
	mi := &MenuItem{Title: title, Checkbox: true, Checked: checked}
	mi.Callback = func() {
		callback(t.toggle(mi.ID))
	}
	return t.add(mi)
}

func (t *Tray) add(mi *MenuItem) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	mi.ID = len(t.items)
	t.items = append(t.items, mi)
	return mi.ID
}

// AddSeparator adds a separator to the menu
func (t *Tray) AddSeparator() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = append(t.items, nil) // nil indicates separator
}

// SetItemChecked sets the checked state of a menu item
func (t *Tray) SetItemChecked(id int, checked bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	mi := t.lookup(id)
	if mi == nil {
		return
	}
	mi.Checked = checked
	t.syncCheck(mi)
}

// Checked reports the checked state of a menu item
func (t *Tray) Checked(id int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	mi := t.lookup(id)
	return mi != nil && mi.Checked
}

func (t *Tray) toggle(id int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	mi := t.lookup(id)
	if mi == nil {
		return false
	}
	mi.Checked = !mi.Checked
	t.syncCheck(mi)
	return mi.Checked
}

func (t *Tray) lookup(id int) *MenuItem {
	if id < 0 || id >= len(t.items) {
		return nil
	}
	return t.items[id]
}

// syncCheck mirrors the state onto the native item once it exists
func (t *Tray) syncCheck(mi *MenuItem) {
	if mi.item == nil {
		return
	}
	if mi.Checked {
		mi.item.Check()
	} else {
		mi.item.Uncheck()
	}
}

// Run starts the tray event loop (blocks). Must be called from the main goroutine.
func (t *Tray) Run() {
	systray.Run(t.setupMenu, func() {
		close(t.quitCh)
	})
}

// setupMenu is called when systray is ready
func (t *Tray) setupMenu() {
	t.mu.Lock()
	defer t.mu.Unlock()

	systray.SetTitle(t.title)
	systray.SetTooltip(t.tooltip)
	systray.SetIcon(ringIcon())

	for _, menuItem := range t.items {
		if menuItem == nil {
			systray.AddSeparator()
			continue
		}

		if menuItem.Checkbox {
			menuItem.item = systray.AddMenuItemCheckbox(menuItem.Title, "", menuItem.Checked)
		} else {
			menuItem.item = systray.AddMenuItem(menuItem.Title, "")
		}

		// Handle clicks in goroutine
		if menuItem.Callback != nil {
			go func(mi *MenuItem) {
				for {
					select {
					case <-mi.item.ClickedCh:
						mi.Callback()
					case <-t.quitCh:
						return
					}
				}
			}(menuItem)
		}
	}
	t.log.Debug("Tray ready")
}

// Stop stops the tray
func (t *Tray) Stop() {
	systray.Quit()
}
