package output

import (
	"io"

	"github.com/agentstation/storefront/internal/cmd/table"
	"github.com/agentstation/storefront/pkg/catalog"
	"github.com/agentstation/storefront/pkg/sales"
	syncpkg "github.com/agentstation/storefront/pkg/sync"
	"github.com/agentstation/storefront/pkg/users"
)

// FormatDevices writes devices in the given format.
func FormatDevices(w io.Writer, devices []catalog.Device, format Format) error {
	var data any = devices
	if IsTable(format) {
		data = table.DevicesToTableData(devices, format == FormatWide)
	}
	return NewFormatter(format).Format(w, data)
}

// FormatRun writes a sync run in the given format.
func FormatRun(w io.Writer, run syncpkg.Run, format Format) error {
	var data any = run
	if IsTable(format) {
		data = table.RunToTableData(run)
	}
	return NewFormatter(format).Format(w, data)
}

// FormatUsers writes accounts in the given format.
func FormatUsers(w io.Writer, list []users.User, format Format) error {
	var data any = list
	if IsTable(format) {
		data = table.UsersToTableData(list)
	}
	return NewFormatter(format).Format(w, data)
}

// FormatSales writes sales in the given format.
func FormatSales(w io.Writer, list []sales.Sale, format Format) error {
	var data any = list
	if IsTable(format) {
		data = table.SalesToTableData(list)
	}
	return NewFormatter(format).Format(w, data)
}

// FormatAny writes data in the given format, tabulating it by reflection
// for table formats.
func FormatAny(w io.Writer, data any, format Format) error {
	return NewFormatter(format).Format(w, data)
}
