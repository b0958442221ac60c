package account

type Permission struct {
	ID   int64  `gorm:"primaryKey"`
	Name string `gorm:"column:name;size:100;uniqueIndex;not null"`
}

func (Permission) TableName() string { return "permissions" }

type Role struct {
	ID          int64        `gorm:"primaryKey"`
	Name        string       `gorm:"column:name;size:100;uniqueIndex;not null"`
	Permissions []Permission `gorm:"many2many:role_permission"`
}

func (Role) TableName() string { return "roles" }

type User struct {
	ID       int64  `gorm:"primaryKey"`
	Username string `gorm:"column:username;size:255;uniqueIndex;not null"`
	Password string `gorm:"column:password;size:255;not null"`
	RoleID   int64  `gorm:"column:role_id;not null"`
	Role     Role   `gorm:"foreignKey:RoleID"`
	IsActive bool   `gorm:"column:is_active;not null"`
}

func (User) TableName() string { return "users" }

type Garage struct {
	ID               int64        `gorm:"primaryKey"`
	Name             string       `gorm:"column:name;size:255;uniqueIndex;not null"`
	Email            string       `gorm:"column:email;size:255;uniqueIndex;not null"`
	Username         string       `gorm:"column:username;size:255;uniqueIndex;not null"`
	Password         string       `gorm:"column:password;size:255;not null"`
	RoleID           int64        `gorm:"column:role_id;not null"`
	Role             Role         `gorm:"foreignKey:RoleID"`
	IsActive         bool         `gorm:"column:is_active;not null"`
	CreatedByID      int64        `gorm:"column:created_by_id;not null"`
	PaymentStatus    *string      `gorm:"column:payment_status;size:50"`
	PaymentSessionID *string      `gorm:"column:payment_session_id;size:255"`
	StripeCustomerID *string      `gorm:"column:stripe_customer_id;size:255"`
	Remorqueurs      []Remorqueur `gorm:"foreignKey:GarageID"`
}

func (Garage) TableName() string { return "garages" }

type Remorqueur struct {
	ID       int64   `gorm:"primaryKey"`
	Name     string  `gorm:"column:name;size:255;not null"`
	Tel      string  `gorm:"column:tel;size:50;not null"`
	Username string  `gorm:"column:username;size:255;uniqueIndex;not null"`
	Password string  `gorm:"column:password;size:255;not null"`
	RoleID   int64   `gorm:"column:role_id;not null"`
	Role     Role    `gorm:"foreignKey:RoleID"`
	GarageID int64   `gorm:"column:garage_id;not null;index"`
	Garage   *Garage `gorm:"foreignKey:GarageID"`
	IsActive bool    `gorm:"column:is_active;not null"`
}

func (Remorqueur) TableName() string { return "remorqueurs" }
