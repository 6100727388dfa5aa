package ds

// User is a system account: an end user owning allocations or an admin
// working the approval queue.
type User struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	Login      string `gorm:"type:varchar(50);unique;not null" json:"login"`
	Password   string `gorm:"type:varchar(255);not null" json:"-"`
	IsAdmin    bool   `gorm:"type:boolean;default:false;not null" json:"is_admin"`
	Email      string `gorm:"type:varchar(100)" json:"email,omitempty"`
	FullName   string `gorm:"type:varchar(100)" json:"full_name,omitempty"`
	Department string `gorm:"type:varchar(255)" json:"department,omitempty"`
}
