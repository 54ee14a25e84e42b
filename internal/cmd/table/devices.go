package table

import (
	"strconv"
	"strings"

	"github.com/agentstation/storefront/pkg/catalog"
	"github.com/agentstation/storefront/pkg/sales"
	syncpkg "github.com/agentstation/storefront/pkg/sync"
	"github.com/agentstation/storefront/pkg/users"
)

// DevicesToTableData converts devices to table format. Wide output adds the
// part counts and description.
func DevicesToTableData(devices []catalog.Device, wide bool) Data {
	headers := []string{"ID", "Code", "Name", "Base Price"}
	align := []Align{AlignRight, AlignLeft, AlignLeft, AlignRight}
	if wide {
		headers = append(headers, "Features", "Customizations", "Add-ons", "Description")
		align = append(align, AlignRight, AlignRight, AlignRight, AlignLeft)
	}

	rows := make([][]string, 0, len(devices))
	for _, d := range devices {
		row := []string{
			strconv.FormatInt(d.ID, 10),
			d.Code,
			d.Name,
			FormatPrice(d.BasePrice, d.Currency),
		}
		if wide {
			row = append(row,
				strconv.Itoa(len(d.Features)),
				strconv.Itoa(len(d.Customizations)),
				strconv.Itoa(len(d.AddOns)),
				orDash(Truncate(d.Description, 60)),
			)
		}
		rows = append(rows, row)
	}

	return Data{Headers: headers, Rows: rows, ColumnAlignment: align}
}

// RunToTableData converts a sync run to a property table.
func RunToTableData(run syncpkg.Run) Data {
	rows := [][]string{
		{"Run", run.ID},
		{"Trigger", string(run.Trigger)},
		{"Status", string(run.Status)},
		{"Dry Run", strconv.FormatBool(run.DryRun)},
		{"Started", FormatTime(run.StartTime)},
		{"Duration", FormatDuration(run.Duration)},
		{"Fetched", FormatNumber(int64(run.Fetched))},
		{"Added", FormatNumber(int64(run.Added))},
		{"Updated", FormatNumber(int64(run.Updated))},
		{"Unchanged", FormatNumber(int64(run.Unchanged))},
		{"Invalid", FormatNumber(int64(run.Invalid))},
	}
	if run.Error != "" {
		rows = append(rows,
			[]string{"Error Class", run.ErrorClass},
			[]string{"Error", run.Error},
		)
	}
	return Data{Headers: []string{"Property", "Value"}, Rows: rows}
}

// UsersToTableData converts accounts to table format.
func UsersToTableData(list []users.User) Data {
	rows := make([][]string, 0, len(list))
	for _, u := range list {
		rows = append(rows, []string{
			strconv.FormatInt(u.ID, 10),
			u.Login,
			orDash(u.Email),
			strconv.FormatBool(u.Activated),
			strings.Join(u.AuthorityNames(), ","),
		})
	}
	return Data{
		Headers:         []string{"ID", "Login", "Email", "Activated", "Authorities"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignRight, AlignLeft, AlignLeft, AlignCenter, AlignLeft},
	}
}

// SalesToTableData converts sales to table format.
func SalesToTableData(list []sales.Sale) Data {
	rows := make([][]string, 0, len(list))
	for _, s := range list {
		device, buyer := "-", "-"
		if s.DeviceID != nil {
			device = strconv.FormatInt(*s.DeviceID, 10)
		}
		if s.User != nil {
			buyer = s.User.Login
		}
		rows = append(rows, []string{
			strconv.FormatInt(s.ID, 10),
			FormatTime(s.SaleDate),
			device,
			buyer,
			FormatPrice(s.Profit, ""),
		})
	}
	return Data{
		Headers:         []string{"ID", "Date", "Device", "Buyer", "Profit"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignRight, AlignLeft, AlignRight, AlignLeft, AlignRight},
	}
}
