package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/staffdesk/apiserver/internal/storage"
)

// ErrExportDisabled is returned when no object-storage backend is
// configured.
var ErrExportDisabled = errors.New("export storage is not configured")

const exportPageSize = 500

// ExportService writes roster snapshots to object storage.
type ExportService struct {
	employees EmployeeRepository
	storage   *storage.Storage
}

func NewExportService(employees EmployeeRepository, store *storage.Storage) *ExportService {
	return &ExportService{employees: employees, storage: store}
}

// ExportEmployees writes a CSV snapshot of every employee to object
// storage under a timestamped key and returns the key and row count.
func (s *ExportService) ExportEmployees(ctx context.Context) (string, int, error) {
	if s.storage == nil {
		return "", 0, ErrExportDisabled
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write([]string{"id", "name", "email", "phone", "salary", "created_at"}); err != nil {
		return "", 0, err
	}

	count := 0
	for offset := 0; ; offset += exportPageSize {
		employees, total, err := s.employees.List(ctx, offset, exportPageSize)
		if err != nil {
			return "", 0, err
		}
		for _, employee := range employees {
			record := []string{
				employee.ID.String(),
				employee.Name,
				employee.Email,
				employee.Phone,
				strconv.FormatInt(employee.Salary, 10),
				employee.CreatedAt.Format(time.RFC3339),
			}
			if err := writer.Write(record); err != nil {
				return "", 0, err
			}
			count++
		}
		if offset+len(employees) >= total || len(employees) == 0 {
			break
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", 0, err
	}

	key := fmt.Sprintf("exports/employees-%s.csv", time.Now().UTC().Format("20060102T150405Z"))
	if err := s.storage.Put(ctx, key, bytes.NewReader(buf.Bytes()), int64(buf.Len()), "text/csv"); err != nil {
		return "", 0, err
	}
	return key, count, nil
}
