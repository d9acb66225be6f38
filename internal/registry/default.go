package registry

func col(name, label string, t ColumnType) Column {
	return Column{Name: name, Label: label, Type: t}
}

func key(name string) Column {
	return Column{Name: name, Label: name, Type: TypeString}
}

// Default returns the school ERP entity set.
func Default() *Registry {
	return MustNew(
		Entity{
			Key:   "students",
			Table: "students",
			Columns: []Column{
				col("id", "Student ID", TypeString),
				col("roll_number", "Roll Number", TypeString),
				col("first_name", "First Name", TypeString),
				col("last_name", "Last Name", TypeString),
				col("email", "Email", TypeString),
				col("phone", "Phone", TypeString),
				col("date_of_birth", "Date of Birth", TypeDate),
				col("gender", "Gender", TypeString),
				col("admission_date", "Admission Date", TypeDate),
				col("status", "Status", TypeString),
				col("created_at", "Created At", TypeDateTime),
			},
			Keys: []Column{key("program_id"), key("division_id"), key("admission_number")},
		},
		Entity{
			Key:   "departments",
			Table: "departments",
			Columns: []Column{
				col("id", "Department ID", TypeString),
				col("name", "Department Name", TypeString),
				col("code", "Department Code", TypeString),
				col("description", "Description", TypeString),
			},
		},
		Entity{
			Key:   "programs",
			Table: "programs",
			Columns: []Column{
				col("id", "Program ID", TypeString),
				col("name", "Program Name", TypeString),
				col("code", "Program Code", TypeString),
				col("duration_years", "Duration (Years)", TypeInteger),
				col("degree_type", "Degree Type", TypeString),
			},
			Keys: []Column{key("department_id")},
		},
		Entity{
			Key:   "divisions",
			Table: "divisions",
			Columns: []Column{
				col("id", "Division ID", TypeString),
				col("name", "Division Name", TypeString),
				col("capacity", "Capacity", TypeInteger),
				col("current_strength", "Current Strength", TypeInteger),
			},
			Keys: []Column{key("program_id")},
		},
		Entity{
			Key:   "student_fees",
			Table: "student_fees",
			Columns: []Column{
				col("id", "Fee ID", TypeString),
				col("total_amount", "Total Amount", TypeDecimal),
				col("paid_amount", "Paid Amount", TypeDecimal),
				col("outstanding_amount", "Outstanding Amount", TypeDecimal),
				col("status", "Payment Status", TypeString),
				col("due_date", "Due Date", TypeDate),
			},
			Keys: []Column{key("student_id")},
		},
		Entity{
			Key:   "student_marks",
			Table: "student_marks",
			Columns: []Column{
				col("id", "Mark ID", TypeString),
				col("marks_obtained", "Marks Obtained", TypeDecimal),
				col("total_marks", "Total Marks", TypeDecimal),
				col("percentage", "Percentage", TypeDecimal),
				col("grade", "Grade", TypeString),
				col("status", "Status", TypeString),
			},
			Keys: []Column{key("student_id")},
		},
		Entity{
			Key:   "attendance",
			Table: "attendance",
			Columns: []Column{
				col("id", "Attendance ID", TypeString),
				col("attendance_date", "Date", TypeDate),
				col("status", "Status", TypeString),
				col("check_in_time", "Check In Time", TypeString),
				col("remarks", "Remarks", TypeString),
			},
			Keys: []Column{key("student_id"), key("division_id")},
		},
	)
}
