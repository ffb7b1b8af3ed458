package reconcile

import (
	"fmt"

	"github.com/hashicorp/go-memdb"

	"github.com/vestfoldfylke/pureservice-sync/pureservice"
)

const (
	userTable         = "user"
	emailAddressTable = "emailaddress"
	phoneNumberTable  = "phonenumber"
	credentialTable   = "credential"

	idIndex        = "id"
	importKeyIndex = "importKey"
	numberIndex    = "number"
)

func idSchema() *memdb.IndexSchema {
	return &memdb.IndexSchema{
		Name:    idIndex,
		Unique:  true,
		Indexer: &memdb.IntFieldIndex{Field: "Id"},
	}
}

func snapshotSchema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			userTable: {
				Name: userTable,
				Indexes: map[string]*memdb.IndexSchema{
					idIndex: idSchema(),
					importKeyIndex: {
						Name:         importKeyIndex,
						AllowMissing: true,
						Indexer:      &memdb.StringFieldIndex{Field: "ImportUniqueKey"},
					},
				},
			},
			emailAddressTable: {
				Name:    emailAddressTable,
				Indexes: map[string]*memdb.IndexSchema{idIndex: idSchema()},
			},
			phoneNumberTable: {
				Name: phoneNumberTable,
				Indexes: map[string]*memdb.IndexSchema{
					idIndex: idSchema(),
					numberIndex: {
						Name:         numberIndex,
						AllowMissing: true,
						Indexer:      &memdb.StringFieldIndex{Field: "Number"},
					},
				},
			},
			credentialTable: {
				Name:    credentialTable,
				Indexes: map[string]*memdb.IndexSchema{idIndex: idSchema()},
			},
		},
	}
}

// Snapshot indexes the Pureservice users of one run with their email
// addresses, phone numbers and credentials.
type Snapshot struct {
	db *memdb.MemDB
}

func NewSnapshot(list *pureservice.UserList) (snapshot *Snapshot, err error) {
	var db *memdb.MemDB
	if db, err = memdb.NewMemDB(snapshotSchema()); err != nil {
		return
	}
	snapshot = &Snapshot{db: db}
	if list == nil {
		return
	}

	var txn = db.Txn(true)
	defer txn.Abort()
	for i := range list.Users {
		if err = txn.Insert(userTable, &list.Users[i]); err != nil {
			return
		}
	}
	if list.Linked != nil {
		for i := range list.Linked.EmailAddresses {
			if err = txn.Insert(emailAddressTable, &list.Linked.EmailAddresses[i]); err != nil {
				return
			}
		}
		for i := range list.Linked.PhoneNumbers {
			if err = txn.Insert(phoneNumberTable, &list.Linked.PhoneNumbers[i]); err != nil {
				return
			}
		}
		for i := range list.Linked.Credentials {
			if err = txn.Insert(credentialTable, &list.Linked.Credentials[i]); err != nil {
				return
			}
		}
	}
	txn.Commit()
	return
}

func first[T any](db *memdb.MemDB, table string, index string, args ...any) *T {
	var txn = db.Txn(false)
	defer txn.Abort()
	var raw, err = txn.First(table, index, args...)
	if err != nil || raw == nil {
		return nil
	}
	return raw.(*T)
}

func byIdArg[T any](db *memdb.MemDB, table string, id *int) *T {
	if id == nil {
		return nil
	}
	return first[T](db, table, idIndex, *id)
}

// UserByImportKey finds the user created from the Entra user with id key.
func (s *Snapshot) UserByImportKey(key string) *pureservice.User {
	if len(key) == 0 {
		return nil
	}
	return first[pureservice.User](s.db, userTable, importKeyIndex, key)
}

func (s *Snapshot) EmailAddress(id *int) *pureservice.EmailAddress {
	return byIdArg[pureservice.EmailAddress](s.db, emailAddressTable, id)
}

func (s *Snapshot) PhoneNumber(id *int) *pureservice.PhoneNumber {
	return byIdArg[pureservice.PhoneNumber](s.db, phoneNumberTable, id)
}

func (s *Snapshot) Credential(id *int) *pureservice.Credential {
	return byIdArg[pureservice.Credential](s.db, credentialTable, id)
}

// UnlinkedPhoneNumber finds a phone number with exactly this number that no user owns.
func (s *Snapshot) UnlinkedPhoneNumber(number string) *pureservice.PhoneNumber {
	if len(number) == 0 {
		return nil
	}
	var txn = s.db.Txn(false)
	defer txn.Abort()
	var it, err = txn.Get(phoneNumberTable, numberIndex, number)
	if err != nil {
		return nil
	}
	for raw := it.Next(); raw != nil; raw = it.Next() {
		var phone = raw.(*pureservice.PhoneNumber)
		if phone.UserId == nil {
			return phone
		}
	}
	return nil
}

func (s *Snapshot) insert(table string, obj any) (err error) {
	var txn = s.db.Txn(true)
	defer txn.Abort()
	if err = txn.Insert(table, obj); err != nil {
		err = fmt.Errorf("snapshot %s: %w", table, err)
		return
	}
	txn.Commit()
	return
}

func (s *Snapshot) AddUser(user *pureservice.User) error {
	return s.insert(userTable, user)
}

func (s *Snapshot) AddPhoneNumber(phone *pureservice.PhoneNumber) error {
	return s.insert(phoneNumberTable, phone)
}

// LinkPhoneNumber records that phone now belongs to userId.
func (s *Snapshot) LinkPhoneNumber(phone *pureservice.PhoneNumber, userId int) error {
	var linked = *phone
	linked.UserId = pureservice.Ptr(userId)
	return s.insert(phoneNumberTable, &linked)
}
