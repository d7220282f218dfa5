package database

import (
	"database/sql"
	"fmt"
	"log"
	"sync"

	"github.com/ravenpay/orderhub/config"

	_ "github.com/lib/pq"
)

// Declare a package-level variable to hold the singleton instance.
// Ensure the instance is not accessible outside the package.
var instance *Datasource
var once sync.Once

// Datasource is the record store: a postgres connection plus the fully
// qualified table the order rows live in.
type Datasource struct {
	Conn     *sql.DB
	tableRef string
}

func NewDataSource(configuration *config.Configuration) (IDataSource, error) {
	con, err := GetDBConnection(configuration)
	if err != nil {
		return nil, err
	}
	return con, nil
}

// GetDBConnection provides a global access point to the instance and initializes it if it's not already.
func GetDBConnection(configuration *config.Configuration) (*Datasource, error) {
	var err error
	once.Do(func() {
		con, errConn := ConnectDB(configuration.DataSource.Dns)
		if errConn != nil {
			err = errConn
			return
		}
		instance = &Datasource{
			Conn:     con,
			tableRef: TableRef(configuration),
		}
	})
	if err != nil {
		return nil, err
	}
	return instance, nil
}

// TableRef renders the schema-qualified orders table name from configuration.
func TableRef(configuration *config.Configuration) string {
	return fmt.Sprintf("%s.%s", configuration.RecordStore.Schema, configuration.RecordStore.Table)
}

func ConnectDB(dns string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dns)
	if err != nil {
		return nil, err
	}
	err = db.Ping()
	if err != nil {
		log.Printf("database Connection error ❌: %v", err)
		return nil, err
	}
	return db, nil
}
