package audit

import "fmt"

func shownText(shown bool) string {
	if shown {
		return "نمایش داده شد"
	}
	return "مخفی شد"
}

func DescribeEmployeeCreated(name string) string {
	return fmt.Sprintf("کاربر \"%s\" اضافه شد", name)
}

func DescribeEmployeeUpdated(name string) string {
	return fmt.Sprintf("کاربر \"%s\" ویرایش شد", name)
}

func DescribeEmployeeDeleted(name string) string {
	return fmt.Sprintf("کاربر \"%s\" حذف شد", name)
}

func DescribeEmployeeVisibility(name string, visible bool) string {
	return fmt.Sprintf("کاربر \"%s\" %s", name, shownText(visible))
}

func DescribeEmployeeMobile(name string, shown bool) string {
	return fmt.Sprintf("موبایل کاربر \"%s\" %s", name, shownText(shown))
}

func DescribeEmployeeEmail(name string, shown bool) string {
	return fmt.Sprintf("ایمیل کاربر \"%s\" %s", name, shownText(shown))
}

func DescribeCompanyCreated(name string) string {
	return fmt.Sprintf("شرکت \"%s\" اضافه شد", name)
}

func DescribeCompanyUpdated(name string) string {
	return fmt.Sprintf("شرکت \"%s\" ویرایش شد", name)
}

func DescribeCompanyDeleted(name string) string {
	return fmt.Sprintf("شرکت \"%s\" حذف شد", name)
}

func DescribeAdminCreated(username string) string {
	return fmt.Sprintf("ادمین جدید \"%s\" اضافه شد", username)
}

func DescribeAdminDeleted(username string) string {
	return fmt.Sprintf("ادمین \"%s\" حذف شد", username)
}

// DescribeLogin covers both successful and rejected logins.
func DescribeLogin(username, status string) string {
	if status == StatusFailed {
		return fmt.Sprintf("ورود ناموفق \"%s\"", username)
	}
	return fmt.Sprintf("ورود \"%s\" به سیستم", username)
}
